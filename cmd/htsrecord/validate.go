package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/scttfrdmn/htsrecord/pkg/bam"
	"github.com/scttfrdmn/htsrecord/pkg/bamsrc"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file.bam>",
	Short: "Check each record's stored bin and CIGAR-derived extent for consistency",
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

		rec := bam.New()
		total, mismatches := 0, 0
		for {
			if err := src.Read(rec); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return fmt.Errorf("read record: %w", err)
			}
			total++
			if err := validateRecord(rec); err != nil {
				mismatches++
				name, _ := rec.TemplateName()
				log.WithField("record", total).WithField("name", name).Warn(err)
			}
		}

		log.WithField("total", total).WithField("mismatches", mismatches).Info("validation complete")
		if mismatches > 0 {
			return fmt.Errorf("%d of %d records failed validation", mismatches, total)
		}
		return nil
	},
}

func validateRecord(rec *bam.Record) error {
	mapped, err := rec.IsMapped()
	if err != nil {
		return fmt.Errorf("mapped check: %w", err)
	}
	if !mapped {
		return nil
	}

	stored, err := rec.StoredBin()
	if err != nil {
		return fmt.Errorf("stored bin: %w", err)
	}
	computed, err := rec.Bin()
	if err != nil {
		return fmt.Errorf("computed bin: %w", err)
	}
	if stored != computed {
		return fmt.Errorf("stored bin %d does not match computed bin %d", stored, computed)
	}

	if _, err := rec.Alignment(); err != nil {
		return fmt.Errorf("alignment walk: %w", err)
	}
	return nil
}
