package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/erazemk/kitshelf/internal/egress"
	"github.com/erazemk/kitshelf/internal/imaging"
)

func cmdCompress(args []string) error {
	fs := flag.NewFlagSet("compress", flag.ContinueOnError)

	var outDir string
	fs.StringVar(&outDir, "out", "", "")
	fs.StringVar(&outDir, "o", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: kitshelf compress [flags] <image>...

Derives the thumbnail, medium and full sizes of each image and reports the
savings against the original.

Flags:
  -o, -out <dir>          write the derived images to dir (default: report only)
  -h, -help               show this help and exit
`)
	}

	if err := parseFlags(fs, args, true); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no images given")
	}

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	deriver := &imaging.Deriver{}
	for _, path := range fs.Args() {
		if err := compressFile(context.Background(), deriver, path, outDir); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func compressFile(ctx context.Context, deriver *imaging.Deriver, path, outDir string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	mime, err := imaging.CheckFile(src)
	if err != nil {
		return err
	}

	set, err := deriver.DeriveSizes(ctx, src)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s, %s)\n", path, mime, humanize.IBytes(uint64(len(src))))

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, p := range imaging.Presets {
		blob := set.Get(p.Size)
		fmt.Printf("  %-9s %4dx%-4d %10s\n", p.Size, blob.Width, blob.Height, humanize.IBytes(uint64(blob.Size())))

		if outDir == "" {
			continue
		}
		name := filepath.Join(outDir, fmt.Sprintf("%s_%s.jpg", base, p.Size))
		if err := os.WriteFile(name, blob.Data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	s := egress.EstimateSavings(set.OriginalSize, set.TotalCompressedSize)
	if s.Inflated() {
		fmt.Printf("  compressed output is %s larger than the original\n", humanize.IBytes(uint64(-s.SavedBytes)))
		return nil
	}
	fmt.Printf("  saved %s (%.1f%%), about %.2f GB of egress per month\n",
		humanize.IBytes(uint64(s.SavedBytes)), s.ReductionPercent, s.ProjectedMonthlyGB)
	return nil
}
