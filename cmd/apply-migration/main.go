package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/MitaksharaYadav/NetraAI/internal/config"
	"github.com/MitaksharaYadav/NetraAI/internal/database"
	"github.com/MitaksharaYadav/NetraAI/internal/logger"
	"github.com/MitaksharaYadav/NetraAI/internal/repository/migrations"

	"go.uber.org/zap"
)

// Applies the embedded migrations, or the .sql files given as arguments.
func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, "console", "apply-migration")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	toApply, err := loadMigrations(os.Args[1:])
	if err != nil {
		log.Fatal("Failed to read migrations", zap.Error(err))
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Cannot connect to database", zap.String("database", cfg.Database.Database), zap.Error(err))
	}
	defer db.Close()

	log.Info("Connected to database", zap.String("database", cfg.Database.Database))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, m := range toApply {
		stmts := migrations.Statements(m.SQL)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			log.Fatal("Failed to begin transaction", zap.Error(err))
		}
		for i, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				log.Fatal("Failed to execute statement",
					zap.String("migration", m.Name),
					zap.Int("statement", i+1),
					zap.String("sql", stmt[:min(100, len(stmt))]),
					zap.Error(err),
				)
			}
		}
		if err := tx.Commit(); err != nil {
			log.Fatal("Failed to commit migration", zap.String("migration", m.Name), zap.Error(err))
		}
		log.Info("Migration applied", zap.String("migration", m.Name), zap.Int("statements", len(stmts)))
	}

	log.Info("Migration completed successfully")
}

func loadMigrations(files []string) ([]migrations.Migration, error) {
	if len(files) == 0 {
		return migrations.All()
	}
	out := make([]migrations.Migration, 0, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, migrations.Migration{Name: filepath.Base(f), SQL: string(b)})
	}
	return out, nil
}
