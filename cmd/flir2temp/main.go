// flir2temp extracts the raw thermal raster embedded in a FLIR
// radiometric image and writes it out either unchanged or converted to
// absolute temperature in Kelvin.
//
// Conversion uses the Planck calibration coefficients stored in the
// image's metadata:
//
//	T = B / ln(R1/(R2*(S+O)) + F)
//
// Raw output keeps the embedded raster's container (PNG or TIFF);
// temperature output is always a floating-point TIFF at the chosen bit
// depth. exiftool must be installed for metadata extraction.
//
// Usage:
//
//	flir2temp [options] infile [outfile]
//
// Options:
//
//	-o <kind>    output kind: raw or temp (default: temp)
//	-b <bits>    temperature sample depth: 16, 32 or 64 (default: 16)
//	-copytags    copy the source metadata onto the output (default: true)
//	-deflate     Deflate-compress TIFF strips
//	-strict      fail on elements where the model is undefined
//	-tool <path> exiftool executable (default: exiftool from PATH)
//	-v           verbose output
//	-version     show version information
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrjoshuak/go-flir/flirmeta"
	"github.com/mrjoshuak/go-flir/rawcodec"
	"github.com/mrjoshuak/go-flir/thermal"
)

const version = "1.0.0"

func main() {
	kindStr := flag.String("o", "temp", "output kind: raw or temp")
	bits := flag.Int("b", 16, "temperature sample depth: 16, 32 or 64")
	copyTags := flag.Bool("copytags", true, "copy the source metadata onto the output")
	deflate := flag.Bool("deflate", false, "Deflate-compress TIFF strips")
	strict := flag.Bool("strict", false, "fail on elements where the model is undefined")
	tool := flag.String("tool", "", "exiftool executable (default: exiftool from PATH)")
	verbose := flag.Bool("v", false, "verbose output")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: flir2temp [options] infile [outfile]\n\n")
		fmt.Fprintf(os.Stderr, "Extract the raw thermal raster from a FLIR radiometric image and\n")
		fmt.Fprintf(os.Stderr, "write it out unchanged (-o raw) or converted to Kelvin (-o temp).\n\n")
		fmt.Fprintf(os.Stderr, "Raw output keeps the embedded raster's container (PNG or TIFF).\n")
		fmt.Fprintf(os.Stderr, "Temperature output is a floating-point TIFF; 16-bit depth stores\n")
		fmt.Fprintf(os.Stderr, "IEEE half-precision samples.\n\n")
		fmt.Fprintf(os.Stderr, "If outfile is omitted, the output name is derived from infile:\n")
		fmt.Fprintf(os.Stderr, "the extension is replaced, and temperature output gains a _T\n")
		fmt.Fprintf(os.Stderr, "suffix (IR_1234.jpg -> IR_1234_T.tiff).\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("flir2temp version %s\n", version)
		fmt.Println("Part of go-flir - https://github.com/mrjoshuak/go-flir")
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		flag.Usage()
		os.Exit(1)
	}

	inFile := args[0]
	outFile := ""
	if len(args) == 2 {
		outFile = args[1]
	}

	var kind thermal.OutputKind
	switch *kindStr {
	case "raw":
		kind = thermal.OutputRaw
	case "temp", "temperature":
		kind = thermal.OutputTemperature
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid output kind: %s\n", *kindStr)
		fmt.Fprintf(os.Stderr, "Valid options are: raw, temp\n")
		os.Exit(1)
	}

	opts := &thermal.LoadOptions{
		OutputKind:                 kind,
		BitDepth:                   thermal.BitDepth(*bits),
		IncludeMetadataPassthrough: *copyTags,
		Strict:                     *strict,
	}

	if err := convert(inFile, outFile, *tool, *deflate, opts, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func convert(inFile, outFile, tool string, deflate bool, opts *thermal.LoadOptions, verbose bool) error {
	ctx := context.Background()

	var metaOpts *flirmeta.Options
	if tool != "" {
		metaOpts = &flirmeta.Options{Tool: tool}
	}
	meta := flirmeta.NewExifTool(metaOpts)
	codec := &rawcodec.Codec{Deflate: deflate}

	if verbose {
		fmt.Printf("Reading file %s\n", inFile)
	}

	im, err := thermal.Load(ctx, inFile, meta, codec, opts)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Printf("  Raster: %dx%d (%s)\n", im.Raw.Width, im.Raw.Height, im.RawFmt)
		fmt.Printf("  Planck: R1=%g R2=%g B=%g F=%g O=%g\n",
			im.Coeffs.R1, im.Coeffs.R2, im.Coeffs.B, im.Coeffs.F, im.Coeffs.O)
		fmt.Printf("  Temperature: min=%.2fK max=%.2fK mean=%.2fK std=%.2fK median=%.2fK\n",
			im.Stats.Min, im.Stats.Max, im.Stats.Mean, im.Stats.StdDev, im.Stats.Median)
	}

	if outFile == "" {
		outFile = im.OutputPath()
	}
	if verbose {
		fmt.Printf("Writing file %s\n", outFile)
	}

	if err := im.Save(ctx, outFile); err != nil {
		return err
	}

	if verbose {
		fmt.Println("Conversion complete.")
	}
	return nil
}
