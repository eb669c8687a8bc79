package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scttfrdmn/htsrecord/pkg/bam"
	"github.com/scttfrdmn/htsrecord/pkg/bamsrc"
)

var inspectLimit int

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.bam>",
	Short: "Print a table of decoded fields for each packed-binary record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()

		src, err := bamsrc.NewReader(f, 0)
		if err != nil {
			return fmt.Errorf("open bam stream: %w", err)
		}

		fmt.Printf("%-20s %6s %-15s %10s %5s %s\n", "Read Name", "Flag", "Ref", "Position", "MapQ", "CIGAR")
		fmt.Println("--------------------------------------------------------------------------------")

		rec := bam.New()
		shown := 0
		for inspectLimit <= 0 || shown < inspectLimit {
			if err := src.Read(rec); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return fmt.Errorf("read record: %w", err)
			}
			if err := printRecordRow(rec); err != nil {
				return err
			}
			shown++
		}
		return nil
	},
}

func printRecordRow(rec *bam.Record) error {
	name, err := rec.TemplateName()
	if err != nil {
		return fmt.Errorf("template name: %w", err)
	}
	flag, err := rec.Flag()
	if err != nil {
		return fmt.Errorf("flag: %w", err)
	}
	refName, err := rec.RefName()
	if err != nil {
		refName = "*"
	}
	pos, err := rec.Position()
	if err != nil {
		pos = 0
	}
	mapQ, err := rec.MappingQuality()
	if err != nil {
		return fmt.Errorf("mapping quality: %w", err)
	}
	cig, err := rec.Cigar(true)
	if err != nil {
		return fmt.Errorf("cigar: %w", err)
	}
	fmt.Printf("%-20s %6d %-15s %10d %5d %s\n", name, flag, refName, pos, mapQ, cig)
	return nil
}

func init() {
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 0, "maximum number of records to print (0 for all)")
}
