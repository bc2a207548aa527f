package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"invite-redemption/internal/config"
	pg "invite-redemption/internal/infra/db/postgres"
	"invite-redemption/internal/usecase"
)

// seedFile is the on-disk provisioning format: an ordered list of
// (code, organization, plan) records.
type seedFile struct {
	Codes []usecase.CodeEntry `yaml:"codes"`
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	codesPath := flag.String("codes", "codes.yaml", "path to YAML file with codes to provision")
	generate := flag.Int("generate", 0, "generate N random codes for -org instead of reading -codes")
	orgName := flag.String("org", "", "organization name for generated codes")
	plan := flag.String("plan", "", "plan label for generated codes")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	codeRepo := pg.NewInviteCodeRepo(pool)
	orgRepo := pg.NewOrganizationRepo(pool)
	provUC := usecase.NewProvisionUseCase(codeRepo, orgRepo, pg.NewTxManager(pool), nil)

	var entries []usecase.CodeEntry
	if *generate > 0 {
		if *orgName == "" {
			log.Fatal("-org is required with -generate")
		}
		for i := 0; i < *generate; i++ {
			code, err := usecase.GenerateInviteCode()
			if err != nil {
				log.Fatalf("generate code: %v", err)
			}
			entries = append(entries, usecase.CodeEntry{Code: code, Organization: *orgName, Plan: *plan})
		}
	} else {
		b, err := os.ReadFile(*codesPath)
		if err != nil {
			log.Fatalf("read codes file: %v", err)
		}
		var sf seedFile
		if err := yaml.Unmarshal(b, &sf); err != nil {
			log.Fatalf("parse codes file: %v", err)
		}
		entries = sf.Codes
	}

	report, err := provUC.Sync(ctx, entries)
	if err != nil {
		log.Fatalf("sync: %v", err)
	}

	fmt.Printf("created=%d updated=%d skipped=%d failed=%d\n",
		report.Created, report.Updated, report.Skipped, len(report.Failed))
	for _, code := range report.Failed {
		fmt.Printf("  failed: %s\n", code)
	}
	if *generate > 0 {
		for _, e := range entries {
			fmt.Printf("  %s -> %s\n", e.Code, e.Organization)
		}
	}
}
