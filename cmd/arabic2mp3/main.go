package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/MarwanElKhodary/ArabicToMP3/internal/config"
	"github.com/MarwanElKhodary/ArabicToMP3/internal/convert"
	"github.com/MarwanElKhodary/ArabicToMP3/internal/epub"
	"github.com/MarwanElKhodary/ArabicToMP3/internal/segment"
	"github.com/MarwanElKhodary/ArabicToMP3/internal/tts"
)

type options struct {
	output    string
	chapter   int
	list      bool
	all       bool
	book      bool
	test      bool
	voices    bool
	voice     string
	backend   string
	chunkSize int
	retries   int
	merge     bool
}

func parseFlags() *options {
	opts := &options{}

	flag.StringVar(&opts.output, "output", "output", "directory for generated audio files")
	flag.StringVar(&opts.output, "o", "output", "shorthand for -output")
	flag.IntVar(&opts.chapter, "chapter", -1, "convert a single chapter (0-based index)")
	flag.IntVar(&opts.chapter, "c", -1, "shorthand for -chapter")
	flag.BoolVar(&opts.list, "list", false, "list chapters and exit")
	flag.BoolVar(&opts.list, "l", false, "shorthand for -list")
	flag.BoolVar(&opts.all, "all", false, "convert every chapter")
	flag.BoolVar(&opts.all, "a", false, "shorthand for -all")
	flag.BoolVar(&opts.book, "book", false, "convert the whole book as one stream")
	flag.BoolVar(&opts.book, "b", false, "shorthand for -book")
	flag.BoolVar(&opts.test, "test", false, "synthesize a short test phrase and exit")
	flag.BoolVar(&opts.test, "t", false, "shorthand for -test")
	flag.BoolVar(&opts.voices, "voices", false, "list available voices and exit")
	flag.BoolVar(&opts.voices, "v", false, "shorthand for -voices")
	flag.StringVar(&opts.voice, "voice", "", "voice to synthesize with (default depends on the backend)")
	flag.StringVar(&opts.backend, "backend", "azure", "synthesis backend: azure, openai or espeak")
	flag.IntVar(&opts.chunkSize, "chunk-size", segment.DefaultChunkSize, "maximum characters per synthesized chunk")
	flag.IntVar(&opts.retries, "retries", tts.DefaultMaxAttempts, "synthesis attempts per chunk")
	flag.BoolVar(&opts.merge, "merge", false, "merge part files after conversion")

	flag.Usage = usage
	flag.Parse()
	return opts
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(),
		"Usage: %s [flags] <book.epub>\n\nConverts an Arabic EPUB book to spoken audio files.\n\nFlags:\n",
		os.Args[0])
	flag.PrintDefaults()
}

func main() {
	opts := parseFlags()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.voices {
		listVoices(ctx, cfg)
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	epubPath := flag.Arg(0)
	if _, err := os.Stat(epubPath); err != nil {
		log.Fatalf("Error: EPUB file '%s' not found", epubPath)
	}

	reader, err := epub.NewReader(epubPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	if opts.list {
		c := convert.New(reader, nil, convert.Options{ChunkSize: opts.chunkSize})
		if err := c.ListChapters(os.Stdout); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	synth, err := newSynthesizer(opts.backend, cfg)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	voice, err := resolveVoice(opts.backend, opts.voice)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	voiceCfg := tts.VoiceConfig{VoiceID: voice, OutputFormat: outputFormat(opts.backend)}

	if err := os.MkdirAll(opts.output, 0755); err != nil {
		log.Fatalf("Error: failed to create output directory: %v", err)
	}

	writer := tts.NewWriter(synth, voiceCfg, opts.retries)
	converter := convert.New(reader, writer, convert.Options{
		OutputDir:  opts.output,
		BookName:   reader.BookName(),
		ChunkSize:  opts.chunkSize,
		FileExt:    voiceCfg.OutputFormat.Ext(),
		MergeParts: opts.merge,
	})

	log.Printf("[Main] Using %s backend with voice %s", synth.Name(), voice)

	switch {
	case opts.test:
		path, err := converter.TestSynthesis(ctx)
		if err != nil {
			log.Fatalf("Error: synthesis test failed: %v", err)
		}
		fmt.Printf("Test synthesis succeeded: %s\n", path)
	case opts.chapter >= 0:
		report(converter.ConvertChapter(ctx, opts.chapter))
	case opts.all:
		report(converter.ConvertAllChapters(ctx))
	case opts.book:
		report(converter.ConvertBook(ctx))
	default:
		fmt.Println("No mode selected; converting the first chapter (use -help for more options).")
		report(converter.ConvertChapter(ctx, 0))
	}
}

func report(files []string, err error) {
	if err != nil {
		log.Fatalf("Error: conversion aborted: %v", err)
	}
	fmt.Printf("Done. %d file(s) written.\n", len(files))
}

func newSynthesizer(backend string, cfg *config.Config) (tts.Synthesizer, error) {
	switch backend {
	case "azure":
		return tts.NewAzureClient(cfg.SpeechKey, cfg.SpeechEndpoint)
	case "openai":
		return tts.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	case "espeak":
		return tts.NewEspeakClient()
	default:
		return nil, fmt.Errorf("unknown backend %q (want azure, openai or espeak)", backend)
	}
}

// outputFormat picks the audio container per backend: the local engine emits
// WAV, the remote services are asked for mp3.
func outputFormat(backend string) tts.OutputFormat {
	if backend == "espeak" {
		return tts.FormatWAV
	}
	return tts.FormatMP3
}

func resolveVoice(backend, voice string) (string, error) {
	switch backend {
	case "azure":
		if voice == "" {
			return tts.DefaultVoice, nil
		}
		if !tts.IsKnownVoice(voice) {
			return "", fmt.Errorf("unknown Azure voice %q (known voices: %s)",
				voice, strings.Join(tts.KnownVoiceNames(), ", "))
		}
		return voice, nil
	case "openai":
		if voice == "" {
			return tts.DefaultOpenAIVoice, nil
		}
		return voice, nil
	default:
		// espeak maps Azure-style names onto its own voices.
		if voice == "" {
			return "ar", nil
		}
		return voice, nil
	}
}

func listVoices(ctx context.Context, cfg *config.Config) {
	fmt.Println("Known Arabic voices:")
	for _, v := range tts.KnownVoices {
		fmt.Printf("  %s (%s, %s)\n", v.ShortName, v.Gender, v.Locale)
	}

	if cfg.SpeechKey == "" || cfg.SpeechEndpoint == "" {
		fmt.Println("\nSet SPEECH_KEY and SPEECH_ENDPOINT to list every voice the service offers.")
		return
	}

	client, err := tts.NewAzureClient(cfg.SpeechKey, cfg.SpeechEndpoint)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	voices, err := client.ListVoices(ctx, "ar")
	if err != nil {
		log.Fatalf("Error: failed to list voices: %v", err)
	}

	fmt.Printf("\nArabic voices available from the service (%d):\n", len(voices))
	for _, v := range voices {
		fmt.Printf("  %s - %s (%s, %s)\n", v.ShortName, v.LocalName, v.Gender, v.Locale)
	}
}
