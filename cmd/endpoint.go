package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"delta-apply/core/config"
	"delta-apply/core/database"
	"delta-apply/core/reconcile"
	"delta-apply/core/storage"
	"delta-apply/feature/delimited"
	"delta-apply/feature/objectstore"
	"delta-apply/feature/relational"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EndpointKind is the storage an endpoint refers to.
type EndpointKind string

const (
	KindFile   EndpointKind = "file"
	KindTable  EndpointKind = "sql"
	KindObject EndpointKind = "s3"
)

// Endpoint is a parsed --source or --target value.
type Endpoint struct {
	Kind     EndpointKind
	Location string
	// Delimiter is set when the scheme or extension implies one.
	Delimiter rune
}

// ParseEndpoint parses sql:table, s3:object/key.csv, csv:path, tsv:path or
// a bare path ending in .csv, .tsv or .txt.
func ParseEndpoint(s string) (Endpoint, error) {
	s = strings.TrimSpace(s)
	if scheme, rest, ok := strings.Cut(s, ":"); ok && len(scheme) > 1 {
		if rest == "" {
			return Endpoint{}, fmt.Errorf("endpoint %q has no location", s)
		}
		switch strings.ToLower(scheme) {
		case "sql":
			return Endpoint{Kind: KindTable, Location: rest}, nil
		case "s3":
			return Endpoint{Kind: KindObject, Location: strings.TrimPrefix(rest, "/"), Delimiter: delimited.DefaultDelimiter(rest)}, nil
		case "csv":
			return Endpoint{Kind: KindFile, Location: rest, Delimiter: ','}, nil
		case "tsv":
			return Endpoint{Kind: KindFile, Location: rest, Delimiter: '\t'}, nil
		default:
			return Endpoint{}, fmt.Errorf("unknown endpoint scheme %q in %q", scheme, s)
		}
	}

	switch strings.ToLower(filepath.Ext(s)) {
	case ".csv", ".tsv", ".txt":
		return Endpoint{Kind: KindFile, Location: s, Delimiter: delimited.DefaultDelimiter(s)}, nil
	}
	return Endpoint{}, fmt.Errorf("cannot tell what kind of endpoint %q is; use sql:, s3:, csv: or tsv:", s)
}

// resolver turns endpoints into backends, connecting to the database and
// the bucket only when an endpoint needs them.
type resolver struct {
	cfg       *config.Config
	logger    *zap.Logger
	delimiter rune

	db    *gorm.DB
	store storage.Client
}

func newResolver(cfg *config.Config, l *zap.Logger, delimiter rune) *resolver {
	return &resolver{cfg: cfg, logger: l, delimiter: delimiter}
}

func (r *resolver) Resolve(s string) (reconcile.Backend, error) {
	ep, err := ParseEndpoint(s)
	if err != nil {
		return nil, err
	}
	delim := ep.Delimiter
	if r.delimiter != 0 {
		delim = r.delimiter
	}

	switch ep.Kind {
	case KindTable:
		if r.db == nil {
			db, err := database.Connect(r.cfg.Database)
			if err != nil {
				return nil, err
			}
			r.db = db
			r.logger.Info("Connected to database", zap.String("driver", r.cfg.Database.Driver))
		}
		return relational.New(r.db, ep.Location, relational.WithLogger(r.logger)), nil
	case KindObject:
		if r.store == nil {
			store, err := storage.NewClient(r.cfg.Storage)
			if err != nil {
				return nil, err
			}
			r.store = store
		}
		return objectstore.New(r.store, r.cfg.Storage.Bucket, ep.Location,
			objectstore.WithDelimiter(delim), objectstore.WithLogger(r.logger)), nil
	default:
		return delimited.New(ep.Location, delimited.WithDelimiter(delim), delimited.WithLogger(r.logger)), nil
	}
}

// Close releases the database connection, if one was opened.
func (r *resolver) Close() {
	if r.db == nil {
		return
	}
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
