package images

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"lanews-extractor/internal/observability"
	"lanews-extractor/internal/scraper"
)

// BlobFetcher скачивает ресурс по URL целиком
type BlobFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
	// Archive: путь к архиву, пустой если архивирование не удалось
	Archive string
}

// Processor скачивает превью статей в dir, затем упаковывает dir в <dir>.zip
type Processor struct {
	fetcher BlobFetcher
	dir     string
	logger  *observability.Logger
}

func NewProcessor(fetcher BlobFetcher, dir string, logger *observability.Logger) *Processor {
	return &Processor{
		fetcher: fetcher,
		dir:     filepath.Clean(dir),
		logger:  logger,
	}
}

// Process проставляет ImagePath у успешно скачанных записей. Ошибки
// отдельных загрузок и архивирования не прерывают обработку.
func (p *Processor) Process(ctx context.Context, articles []*scraper.Article) Summary {
	var summary Summary

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		p.logger.Warn("Failed to create images folder", "dir", p.dir, "error", err.Error())
	}

	for i, article := range articles {
		if article.ImageURL == "" {
			summary.Skipped++
			continue
		}

		path, err := p.download(ctx, i, article.ImageURL)
		if err != nil {
			summary.Failed++
			p.logger.Warn("Failed to download image",
				"article", i,
				"url", article.ImageURL,
				"error", err.Error(),
			)
			continue
		}

		article.ImagePath = &path
		summary.Downloaded++
	}

	p.logger.Info("Images downloaded",
		"downloaded", summary.Downloaded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)

	archive := p.dir + ".zip"
	if err := zipDir(p.dir, archive); err != nil {
		p.logger.Warn("Failed to archive images", "dir", p.dir, "error", err.Error())
		return summary
	}
	summary.Archive = archive

	if err := os.RemoveAll(p.dir); err != nil {
		p.logger.Warn("Failed to remove images folder", "dir", p.dir, "error", err.Error())
	}

	p.logger.Info("Images archived", "archive", archive)
	return summary
}

func (p *Processor) download(ctx context.Context, index int, url string) (string, error) {
	body, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	path := filepath.Join(p.dir, fmt.Sprintf("image_%d.jpg", index))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

// zipDir пишет файлы верхнего уровня dir в архив target
func zipDir(dir, target string) (err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read folder: %w", err)
	}

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(out)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := addFile(zw, filepath.Join(dir, entry.Name()), entry.Name()); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, path, name string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	_, err = io.Copy(w, in)
	return err
}
