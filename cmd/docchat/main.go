package main

import (
	"log"
	"net/http"

	"docchat/internal/api"
	"docchat/internal/config"
	"docchat/internal/extract"
	"docchat/internal/providers"
	"docchat/internal/rag"
	"docchat/internal/store"
	"docchat/internal/util"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	pm, err := providers.NewManager(cfg)
	if err != nil {
		log.Fatalf("provider configuration: %v", err)
	}
	if err := util.EnsureDir(cfg.UploadsRoot); err != nil {
		log.Fatal(err)
	}

	sessions := store.New(cfg.SessionTTL, cfg.SessionPurgeEvery)
	svc := rag.New(cfg, sessions, pm, extract.NewChain())
	h := api.NewServer(cfg, svc)

	log.Printf("docchat api listening on %s llm_providers=%q embed_providers=%q", cfg.APIAddr, cfg.LLMProviders, cfg.EmbedProviders)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
