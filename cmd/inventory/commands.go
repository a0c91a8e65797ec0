package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/app"
	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/Chenyi0309/inventory-dashboard/internal/drive"
	"github.com/Chenyi0309/inventory-dashboard/internal/export"
	"github.com/Chenyi0309/inventory-dashboard/internal/forecast"
	"github.com/Chenyi0309/inventory-dashboard/internal/service"
	"github.com/Chenyi0309/inventory-dashboard/internal/storage"
	"github.com/urfave/cli/v2"
)

func queryFromFlags(c *cli.Context) service.Query {
	return service.Query{
		Category:   c.String("category"),
		WarnDays:   c.Int("warn-days"),
		UrgentDays: c.Int("urgent-days"),
	}
}

func runSummary(c *cli.Context) error {
	svcs, _, err := openServices(c, "file")
	if err != nil {
		return err
	}
	defer closeServices(svcs)

	dashboard, err := svcs.Inventory.GetSummaries(c.Context, queryFromFlags(c))
	if err != nil {
		return err
	}

	switch strings.ToLower(c.String("format")) {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(dashboard)
	case "csv":
		return export.WriteSummaries(os.Stdout, dashboard.Summaries)
	case "table":
		if err := writeTable(os.Stdout, dashboard.Summaries); err != nil {
			return err
		}
		if len(dashboard.Dropped) > 0 {
			fmt.Fprintf(os.Stderr, "%d malformed rows were skipped\n", len(dashboard.Dropped))
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", c.String("format"))
	}
}

func runRecord(c *cli.Context) error {
	svcs, _, err := openServices(c, "file")
	if err != nil {
		return err
	}
	defer closeServices(svcs)

	qty := c.Float64("qty")
	line := domain.EntryLine{
		Item:     c.String("item"),
		Unit:     c.String("unit"),
		Quantity: &qty,
		Notes:    c.String("notes"),
	}
	if c.IsSet("price") {
		price := c.Float64("price")
		line.UnitPrice = &price
	}

	outcomes, err := svcs.Inventory.RecordEvents(c.Context, domain.Entry{
		Date:     c.String("date"),
		Category: c.String("category"),
		Kind:     c.String("kind"),
		Lines:    []domain.EntryLine{line},
	}, time.Now())
	if err != nil {
		return err
	}

	if outcomes[0].Status != domain.EntryOK {
		return fmt.Errorf("%s: %s", outcomes[0].Item, outcomes[0].Reason)
	}
	fmt.Printf("recorded %s for %s\n", c.String("kind"), outcomes[0].Item)
	return nil
}

func runImport(c *cli.Context) error {
	svcs, cfg, err := openServices(c, "target")
	if err != nil {
		return err
	}
	defer closeServices(svcs)

	ctx := c.Context
	paths := c.StringSlice("file")

	if c.IsSet("drive-folder-id") || c.IsSet("drive-folder-path") {
		creds, err := cfg.Sheets.Credentials()
		if err != nil {
			return err
		}
		driveService, err := drive.NewService(ctx, creds)
		if err != nil {
			return err
		}
		downloaded, err := drive.NewDownloader(driveService).DownloadFolder(ctx, drive.DownloadOptions{
			FolderID:    c.String("drive-folder-id"),
			FolderPath:  c.String("drive-folder-path"),
			DownloadDir: c.String("download-dir"),
		})
		if err != nil {
			return fmt.Errorf("drive download failed: %w", err)
		}
		paths = append(paths, downloaded...)
	}

	if c.IsSet("bucket") || c.IsSet("prefix") {
		objects, err := app.ObjectStorage(cfg.Storage, c.String("bucket"))
		if err != nil {
			return err
		}
		downloaded, err := service.FetchObjects(ctx, objects, c.String("prefix"), c.String("download-dir"))
		if err != nil {
			return fmt.Errorf("object download failed: %w", err)
		}
		paths = append(paths, downloaded...)
	}

	if len(paths) == 0 {
		return fmt.Errorf("nothing to import: pass --file, --drive-folder-id/--drive-folder-path or --bucket/--prefix")
	}

	report, err := svcs.Imports.ImportPaths(ctx, paths)
	if err != nil {
		if report != nil && report.Appended > 0 {
			fmt.Fprintf(os.Stderr, "%d rows were appended before the failure\n", report.Appended)
		}
		return err
	}

	for _, f := range report.Files {
		if f.Error != "" {
			fmt.Printf("%s: %s\n", f.Filename, f.Error)
			continue
		}
		fmt.Printf("%s: %d rows, %d appended, %d dropped\n", f.Filename, f.Rows, f.Appended, f.Dropped)
	}
	fmt.Printf("total: %d appended, %d dropped\n", report.Appended, report.Dropped)
	return nil
}

func runExport(c *cli.Context) error {
	svcs, cfg, err := openServices(c, "file")
	if err != nil {
		return err
	}
	defer closeServices(svcs)

	dashboard, err := svcs.Inventory.GetSummaries(c.Context, queryFromFlags(c))
	if err != nil {
		return err
	}

	if c.IsSet("bucket") || c.IsSet("key") {
		var buf bytes.Buffer
		if err := export.WriteSummaries(&buf, dashboard.Summaries); err != nil {
			return err
		}

		objects, err := app.ObjectStorage(cfg.Storage, c.String("bucket"))
		if err != nil {
			return err
		}
		key := c.String("key")
		if key == "" {
			key = storage.ObjectKey(cfg.Storage.Prefix, export.Filename(time.Now()))
		}
		if err := objects.UploadObject(c.Context, key, &buf, int64(buf.Len()), export.ContentType); err != nil {
			return err
		}
		fmt.Printf("uploaded %d items to %s\n", len(dashboard.Summaries), key)
		return nil
	}

	out := c.String("out")
	if out == "" || out == "-" {
		return export.WriteSummaries(os.Stdout, dashboard.Summaries)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := export.WriteSummaries(f, dashboard.Summaries); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %d items to %s\n", len(dashboard.Summaries), out)
	return nil
}

func writeTable(w io.Writer, summaries []forecast.ItemSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tCATEGORY\tSTOCK\tUSAGE 14D\tDAYS LEFT\tREORDER\tSEVERITY")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Item,
			s.Category,
			withUnit(s.CurrentStock, s.Unit),
			withUnit(s.Usage14d, s.Unit),
			number(s.DaysLeft, 1),
			withUnit(s.ReorderQty, s.Unit),
			s.Severity,
		)
	}
	return tw.Flush()
}

func number(v *float64, prec int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, *v)
}

func withUnit(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", number(v, 2), unit))
}
