// Command verify-db checks that the ledger schema and read views exist and
// are readable. Run it after bootstrap when diagnosing a failed import.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

var relations = []string{
	"journal",
	"account",
	"party",
	"document",
	"history",
	"kpi",
	"kpidata",
	"v_history",
	"v_history_cost",
	"v_history_revenue",
	"v_history_profit_loss",
	"v_kpi",
}

func main() {
	_ = godotenv.Load()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Fatal("[CONNECT] DATABASE_URL not set")
	}

	ctx := context.Background()
	pool := connectDB(ctx, url)
	defer pool.Close()

	failed := 0
	for _, relation := range relations {
		var count int64
		err := pool.QueryRow(ctx, fmt.Sprintf("select count(*) from %s", relation)).Scan(&count)
		if err != nil {
			log.Printf("[CHECK] %-22s FAILED: %v", relation, err)
			failed++
			continue
		}
		log.Printf("[CHECK] %-22s ok (%d rows)", relation, count)
	}

	if failed > 0 {
		log.Fatalf("[DONE] %d of %d relations missing or unreadable", failed, len(relations))
	}
	log.Println("[DONE] schema verified")
}

func connectDB(ctx context.Context, url string) *pgxpool.Pool {
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		log.Fatalf("[CONNECT] failed to create pool: %v", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		log.Fatalf("[CONNECT] failed to ping database: %v", err)
	}
	log.Println("[CONNECT] success")
	return pool
}
