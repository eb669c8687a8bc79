package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scttfrdmn/htsrecord/pkg/bam"
	"github.com/scttfrdmn/htsrecord/pkg/bamsrc"
)

var dumpSAMCmd = &cobra.Command{
	Use:   "dump-sam <file.bam>",
	Short: "Render each packed-binary record as a tab-separated text line",
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
		for {
			if err := src.Read(rec); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return fmt.Errorf("read record: %w", err)
			}
			line, err := renderTextLine(rec)
			if err != nil {
				return fmt.Errorf("render record: %w", err)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func renderTextLine(rec *bam.Record) (string, error) {
	name, err := rec.TemplateName()
	if err != nil {
		return "", err
	}
	flag, err := rec.Flag()
	if err != nil {
		return "", err
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
		return "", err
	}
	cig, err := rec.Cigar(true)
	if err != nil {
		return "", err
	}
	nextRefName, err := rec.NextRefName()
	if err != nil {
		nextRefName = "*"
	}
	nextPos, err := rec.NextPosition()
	if err != nil {
		nextPos = 0
	}
	tLen, err := rec.TemplateLength()
	if err != nil {
		return "", err
	}
	sequence, err := rec.Sequence()
	if err != nil {
		return "", err
	}
	seqStr := "*"
	if sequence != nil {
		seqStr = sequence.String()
	}
	quality, err := rec.Quality()
	if err != nil {
		return "", err
	}
	qualStr := "*"
	if len(quality) > 0 && quality[0] != 0xff {
		b := make([]byte, len(quality))
		for i, q := range quality {
			b[i] = q + 33
		}
		qualStr = string(b)
	}

	fields := []string{
		name,
		fmt.Sprintf("%d", flag),
		refName,
		fmt.Sprintf("%d", pos),
		fmt.Sprintf("%d", mapQ),
		cig,
		nextRefName,
		fmt.Sprintf("%d", nextPos),
		fmt.Sprintf("%d", tLen),
		seqStr,
		qualStr,
	}
	return strings.Join(fields, "\t"), nil
}
