package store

import (
	"fmt"
	"io"
	"strings"
	"time"

	"fan-feed-go/internal/model"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Posts"

var exportHeader = []any{
	"id", "platform", "published_at", "text", "source_url",
	"likes", "comments", "shares", "media", "verified", "source", "added_at",
}

// ExportXLSX writes one row per post in the order given.
func ExportXLSX(posts []model.Post, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	if err := writeRow(f, exportSheet, 1, exportHeader); err != nil {
		return err
	}
	for i, p := range posts {
		media := make([]string, 0, len(p.Media))
		for _, m := range p.Media {
			media = append(media, m.SourceURL)
		}
		row := []any{
			p.ID,
			string(p.Platform),
			p.PublishedAt.UTC().Format(time.RFC3339),
			p.Text,
			p.SourceURL,
			p.Engagement.Likes,
			p.Engagement.Comments,
			p.Engagement.Shares,
			strings.Join(media, "\n"),
			p.Verified,
			p.Source,
			p.AddedAt.UTC().Format(time.RFC3339),
		}
		if err := writeRow(f, exportSheet, i+2, row); err != nil {
			return err
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowIdx int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowIdx)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
