// Command wikitools-build turns a Wikipedia multistream dump into the
// index maps, anchor TSV/counts, search index, and redirect/template
// side files described in SPEC_FULL.md §6.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kthwaite/wikitools/internal/build"
	"github.com/kthwaite/wikitools/internal/config"
	"github.com/kthwaite/wikitools/internal/s3store"
	"github.com/kthwaite/wikitools/internal/wikierr"
)

const searchIndexTarball = "search_index.tar.gz"

func main() {
	configPath := flag.String("config", "wikitools.toml", "path to the settings file")
	force := flag.Bool("force", false, "rebuild artifacts even if already present on disk")
	workers := flag.Int("workers", 0, "override worker count (0 = runtime.NumCPU())")
	reaggregate := flag.Bool("reaggregate", false, "re-derive anchor counts from the already-dumped anchors TSV instead of rescanning the dump")
	publish := flag.Bool("publish", false, "push finished artifacts to an S3-compatible bucket")
	s3Endpoint := flag.String("s3-endpoint", "", "S3-compatible endpoint, e.g. s3.amazonaws.com")
	s3Bucket := flag.String("s3-bucket", "wikitools", "destination bucket for -publish")
	s3AccessKey := flag.String("s3-access-key", "", "S3 access key")
	s3SecretKey := flag.String("s3-secret-key", "", "S3 secret key")
	flag.Parse()

	logger := log.New(os.Stderr, "wikitools-build: ", log.LstdFlags)

	settings, err := config.Load(*configPath)
	if err != nil {
		logger.Print(err)
		os.Exit(wikierr.ExitCode(err))
	}

	if *reaggregate {
		err = build.Reaggregate(context.Background(), logger, settings, *workers)
	} else {
		err = build.Run(context.Background(), logger, settings, build.Options{Force: *force, Workers: *workers})
	}
	if err != nil {
		logger.Print(err)
		os.Exit(wikierr.ExitCode(err))
	}

	if *publish {
		if err := publishArtifacts(*s3Endpoint, *s3Bucket, *s3AccessKey, *s3SecretKey, settings); err != nil {
			logger.Print(err)
			os.Exit(wikierr.ExitCode(err))
		}
	}
}

func publishArtifacts(endpoint, bucket, accessKey, secretKey string, settings *config.Settings) error {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: true,
	})
	if err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}

	tarballPath := settings.SearchIndex.IndexDir + ".tar.gz"
	if err := s3store.TarGzDir(settings.SearchIndex.IndexDir, tarballPath); err != nil {
		return err
	}

	artifacts := []s3store.Artifact{
		{LocalPath: settings.Anchors.AnchorCounts + ".fst", ObjectName: "anchor_counts.fst", ContentType: "application/octet-stream"},
		{LocalPath: settings.Anchors.AnchorCounts + ".bolt", ObjectName: "anchor_counts.bolt", ContentType: "application/octet-stream"},
		{LocalPath: tarballPath, ObjectName: searchIndexTarball, ContentType: "application/gzip"},
	}
	return s3store.PublishArtifacts(context.Background(), client, bucket, artifacts)
}
