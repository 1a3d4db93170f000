// Package export dumps security datasets to S3-compatible object storage as
// NDJSON, one object per dataset per export run.
package export

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DB is the query surface the exporter needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// datasetQueries maps exportable dataset names to their row queries. Rows are
// serialized by postgres itself so export stays schema-agnostic.
var datasetQueries = map[string]string{
	"threats":          `SELECT row_to_json(t)::text FROM threats t ORDER BY t.created_at`,
	"live_attacks":     `SELECT row_to_json(a)::text FROM live_attacks a ORDER BY a.created_at`,
	"blocked_attacks":  `SELECT row_to_json(b)::text FROM blocked_attacks b ORDER BY b.blocked_at`,
	"blocked_entities": `SELECT row_to_json(e)::text FROM blocked_entities e ORDER BY e.created_at`,
	"scan_results":     `SELECT row_to_json(s)::text FROM scan_results s ORDER BY s.created_at`,
	"incidents":        `SELECT row_to_json(i)::text FROM incidents i ORDER BY i.created_at`,
}

// Datasets returns the exportable dataset names, sorted.
func Datasets() []string {
	names := make([]string, 0, len(datasetQueries))
	for name := range datasetQueries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ObjectResult describes one uploaded dataset object.
type ObjectResult struct {
	Dataset string `json:"dataset"`
	Key     string `json:"key"`
	Rows    int    `json:"rows"`
	Bytes   int    `json:"bytes"`
}

// Result summarizes a full export run.
type Result struct {
	Bucket     string         `json:"bucket"`
	Objects    []ObjectResult `json:"objects"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

type Exporter struct {
	db     DB
	client *s3.Client
	bucket string
	logger zerolog.Logger
}

// Options configures the S3 target.
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

func NewExporter(db DB, opts Options, logger zerolog.Logger) *Exporter {
	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(opts.Endpoint),
		Region:       opts.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		UsePathStyle: true,
	})
	return &Exporter{
		db:     db,
		client: client,
		bucket: opts.Bucket,
		logger: logger.With().Str("component", "export").Logger(),
	}
}

// Export uploads the named datasets concurrently. An empty list exports all
// datasets. Unknown dataset names fail the run before any upload starts.
func (e *Exporter) Export(ctx context.Context, datasets []string) (*Result, error) {
	if len(datasets) == 0 {
		datasets = Datasets()
	}
	for _, name := range datasets {
		if _, ok := datasetQueries[name]; !ok {
			return nil, fmt.Errorf("unknown dataset %q", name)
		}
	}

	result := &Result{
		Bucket:    e.bucket,
		StartedAt: time.Now(),
	}
	prefix := result.StartedAt.UTC().Format("exports/2006-01-02T15-04-05Z")

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)

	for _, name := range datasets {
		g.Go(func() error {
			obj, err := e.exportDataset(gctx, name, prefix)
			if err != nil {
				return fmt.Errorf("export %s: %w", name, err)
			}
			mu.Lock()
			result.Objects = append(result.Objects, *obj)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result.Objects, func(i, j int) bool {
		return result.Objects[i].Dataset < result.Objects[j].Dataset
	})
	result.FinishedAt = time.Now()

	e.logger.Info().
		Int("datasets", len(result.Objects)).
		Str("prefix", prefix).
		Msg("export completed")
	return result, nil
}

func (e *Exporter) exportDataset(ctx context.Context, name, prefix string) (*ObjectResult, error) {
	rows, err := e.db.Query(ctx, datasetQueries[name])
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var buf bytes.Buffer
	count := 0
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	key := fmt.Sprintf("%s/%s.ndjson", prefix, name)
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	return &ObjectResult{Dataset: name, Key: key, Rows: count, Bytes: buf.Len()}, nil
}
