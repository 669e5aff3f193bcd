package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Part-file merging for the converter's merge option. All parts in one run
// come from the same backend with one output format, so WAV headers are
// assumed uniform across inputs.

const wavHeaderSize = 44

// DefaultSilenceMs is the gap inserted between WAV parts when merging.
const DefaultSilenceMs = 400

// MergeFiles concatenates part files into outputPath, picking the strategy
// from the output extension: header-aware merging for wav, plain frame
// concatenation for mp3 (valid for the constant-bitrate streams the speech
// services return).
func MergeFiles(inputs []string, outputPath string) error {
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".wav":
		return MergeWavFiles(inputs, outputPath, DefaultSilenceMs)
	case ".mp3":
		return MergeMP3Files(inputs, outputPath)
	default:
		return fmt.Errorf("unsupported merge format: %s", filepath.Ext(outputPath))
	}
}

// MergeWavFiles concatenates WAV files into a single output file, inserting
// silenceMs of silence between parts. All inputs must share one format
// (sample rate, channels, bit depth).
func MergeWavFiles(inputs []string, outputPath string, silenceMs int) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no input files to merge")
	}

	header, err := readWavHeader(inputs[0])
	if err != nil {
		return err
	}

	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])
	byteRate := sampleRate * uint32(numChannels) * uint32(bitsPerSample/8)

	// The gap is zero PCM samples, padded to the block alignment.
	silenceBytes := (byteRate * uint32(silenceMs)) / 1000
	blockAlign := uint32(numChannels * (bitsPerSample / 8))
	if blockAlign > 0 && silenceBytes%blockAlign != 0 {
		silenceBytes += blockAlign - silenceBytes%blockAlign
	}
	silence := make([]byte, silenceBytes)

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	// The first file's header goes out as a placeholder; the size fields
	// are patched once the data length is known.
	if _, err := outFile.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	var totalData uint32
	for i, inputPath := range inputs {
		if i > 0 && len(silence) > 0 {
			n, err := outFile.Write(silence)
			if err != nil {
				return fmt.Errorf("failed to write silence: %w", err)
			}
			totalData += uint32(n)
		}

		n, err := appendWavData(outFile, inputPath)
		if err != nil {
			return err
		}
		totalData += uint32(n)
	}

	// RIFF chunk size sits at offset 4, data subchunk size at offset 40.
	if _, err := outFile.Seek(4, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to RIFF size: %w", err)
	}
	if err := binary.Write(outFile, binary.LittleEndian, totalData+36); err != nil {
		return fmt.Errorf("failed to write RIFF size: %w", err)
	}
	if _, err := outFile.Seek(40, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to data size: %w", err)
	}
	if err := binary.Write(outFile, binary.LittleEndian, totalData); err != nil {
		return fmt.Errorf("failed to write data size: %w", err)
	}
	return nil
}

// MergeMP3Files appends the raw mp3 streams back to back.
func MergeMP3Files(inputs []string, outputPath string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no input files to merge")
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	for _, inputPath := range inputs {
		if err := appendFile(outFile, inputPath); err != nil {
			return err
		}
	}
	return nil
}

func readWavHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open first input file: %w", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	return header, nil
}

func appendWavData(out *os.File, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Seek(wavHeaderSize, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to seek in %s: %w", path, err)
	}
	n, err := io.Copy(out, f)
	if err != nil {
		return 0, fmt.Errorf("failed to append data from %s: %w", path, err)
	}
	return n, nil
}

func appendFile(out *os.File, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(out, f); err != nil {
		return fmt.Errorf("failed to append data from %s: %w", path, err)
	}
	return nil
}
