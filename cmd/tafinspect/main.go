// Package main prints what tafcue reads from a TAF file: chapter markers,
// the pages they resolve to and their theoretical start times.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/listenupapp/tafcue/internal/metadata"
	"github.com/listenupapp/tafcue/internal/taf"
	"github.com/listenupapp/tafcue/internal/timecode"
	"github.com/listenupapp/tafcue/internal/transcode"
)

func main() {
	headerSize := pflag.Int("header-size", taf.DefaultHeaderSize, "Size of the TAF header in bytes")
	tag := pflag.Uint8("chapter-tag", taf.DefaultChapterTag, "Tag byte of the chapter list field")
	rate := pflag.Int("sample-rate", timecode.DefaultSampleRate, "Granule sample rate")
	depth := pflag.Int("depth", 100, "Backward search bound for page lookups")
	mp3 := pflag.String("mp3", "", "Converted mp3 to compare durations with")
	hashOnly := pflag.Bool("hash-only", false, "Print only the database lookup hash")
	pages := pflag.Bool("pages", false, "List every Ogg page with its granule position")
	pflag.Parse()

	if pflag.NArg() < 1 {
		log.Fatal("Usage: tafinspect [flags] <file.taf>")
	}
	path := pflag.Arg(0)

	if *hashOnly {
		hash, err := metadata.HashFile(path, *headerSize)
		if err != nil {
			log.Fatalf("Failed to hash file: %v", err)
		}
		fmt.Println(hash)
		return
	}

	file, err := taf.Open(path, *headerSize)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}

	index := file.Index()
	fmt.Printf("File:     %s\n", path)
	fmt.Printf("Hash:     %s\n", metadata.HashAudio(file.Audio))
	fmt.Printf("Audio:    %d bytes\n", len(file.Audio))
	fmt.Printf("Pages:    %d\n", len(index))
	length := timecode.Seconds(index.LastGranule(), *rate)
	fmt.Printf("Length:   %s (%s)\n", timecode.Format(length), timecode.Duration(length))

	if cand, ok := taf.FindChapterCandidate(file.Header, *tag); ok {
		fmt.Printf("Chapters: field at offset %d, %d markers\n", cand.Offset, len(cand.Markers))
	} else {
		fmt.Println("Chapters: no chapter field found")
	}
	fmt.Println()

	markers := file.Chapters(taf.ScanOptions{Tag: *tag})
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TRACK\tMARKER\tGRANULE\tSECONDS\tCUE")
	for i, m := range markers {
		if i == 0 {
			fmt.Fprintf(tw, "%02d\t%d\t0\t0.000\t%s\n", i+1, m, timecode.Format(0))
			continue
		}
		granule, ok := index.Resolve(m, *depth)
		if !ok {
			fmt.Fprintf(tw, "%02d\t%d\t-\t-\tunresolved\n", i+1, m)
			continue
		}
		secs := timecode.Seconds(granule, *rate)
		fmt.Fprintf(tw, "%02d\t%d\t%d\t%.3f\t%s\n", i+1, m, granule, secs, timecode.Format(secs))
	}
	_ = tw.Flush()

	if *pages {
		fmt.Println()
		tw = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PAGE\tGRANULE\tCUE")
		for _, seq := range index.Sequences() {
			granule, _ := index.Lookup(seq)
			fmt.Fprintf(tw, "%d\t%d\t%s\n", seq, granule, timecode.FromGranule(granule, *rate))
		}
		_ = tw.Flush()
	}

	if *mp3 != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		dur, err := transcode.Duration(ctx, *mp3)
		if err != nil {
			log.Fatalf("Failed to read mp3: %v", err)
		}
		fmt.Printf("\nMP3 duration: %s (%s), %s against the last granule\n",
			dur, timecode.Format(dur.Seconds()), dur-timecode.Duration(length))
	}
}
