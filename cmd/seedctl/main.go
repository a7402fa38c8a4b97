// seedctl loads a course catalog from a JSON file into the document store.
// Reviews are never seeded; summaries start at zero and are owned by the
// rating engine from then on.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"os"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"course_review/internal/adapters/appwrite"
	"course_review/internal/adapters/observability"
	"course_review/internal/domain"
	"course_review/internal/shared"
	mysqlstore "course_review/internal/storage/mysql"
)

type seedCourse struct {
	ID          string `json:"id"` // optional; empty means store-generated
	Title       string `json:"title"`
	Instructor  string `json:"instructor"`
	Description string `json:"description"`
}

func main() {
	file := flag.String("file", "courses.json", "path to the course catalog JSON")
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("read catalog failed")
	}
	var courses []seedCourse
	if err := json.Unmarshal(raw, &courses); err != nil {
		log.Fatal().Err(err).Msg("catalog is not a JSON array of courses")
	}

	store := openStore(cfg)

	log.Info().Int("courses", len(courses)).Int("workers", cfg.SeedWorkers).Msg("seeding catalog")

	sem := semaphore.NewWeighted(int64(cfg.SeedWorkers))
	var wg sync.WaitGroup

	for _, c := range courses {
		c := c
		if c.Title == "" {
			log.Warn().Str("id", c.ID).Msg("skipping course without a title")
			continue
		}

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(c seedCourse) {
			defer wg.Done()
			defer sem.Release(1)

			doc, err := store.CreateDocument(ctx, domain.CollectionCourses, c.ID, map[string]any{
				"title":        c.Title,
				"instructor":   c.Instructor,
				"description":  c.Description,
				"rating":       0.0,
				"totalReviews": 0,
			})
			if err != nil {
				log.Warn().Str("title", c.Title).Err(err).Msg("seed failed")
				return
			}
			log.Info().Str("id", doc.ID).Str("title", c.Title).Msg("seed ok")
		}(c)
	}

	wg.Wait()
	log.Info().Msg("seeding completed")
}

func openStore(cfg shared.Config) domain.DocumentStore {
	if cfg.Backend == "mysql" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		return mysqlstore.New(db)
	}

	client, err := appwrite.New(cfg.AppwriteEndpoint, cfg.AppwriteProject, cfg.AppwriteKey, cfg.AppwriteRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize appwrite client")
	}
	docs, err := appwrite.NewDocuments(client, cfg.AppwriteDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize document store")
	}
	return docs
}
