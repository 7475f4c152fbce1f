package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tatianab/donjon/internal/catalog"
	"github.com/tatianab/donjon/internal/combat"
	"github.com/tatianab/donjon/internal/config"
	"github.com/tatianab/donjon/internal/engine"
	"github.com/tatianab/donjon/internal/models"
	"github.com/tatianab/donjon/internal/prompt"
	"github.com/tatianab/donjon/internal/random"
)

const (
	gamesPerClass = 5
	gameTimeout   = 10 * time.Second
)

// Plays the embedded story on autopilot with every class and prints how each
// run ended. Set DONJON_SEED for a reproducible batch.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cat, err := catalog.LoadEmbedded()
	if err != nil {
		log.Fatalf("Failed to load content: %v", err)
	}
	rng, err := random.New(cfg.Seed)
	if err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}

	tally := map[engine.Kind]int{}
	for _, class := range cat.ClassList() {
		fmt.Printf("--- %s ---\n", class.Name)
		for game := 1; game <= gamesPerClass; game++ {
			s, err := models.NewSession(cat, class.ID, fmt.Sprintf("Bot %d", game))
			if err != nil {
				log.Fatalf("Failed to create session: %v", err)
			}

			auto := &prompt.Auto{Rand: rng, Skip: []string{combat.LabelFlee, combat.LabelBack}}
			fights := combat.NewEngine(cat, rng, auto)
			eng := engine.NewEngine(cat, fights, auto, nil)

			ctx, cancel := context.WithTimeout(context.Background(), gameTimeout)
			res, err := eng.Run(ctx, s)
			cancel()
			if err != nil {
				fmt.Printf("Game %d: error: %v\n", game, err)
				continue
			}
			tally[res.Kind]++
			fmt.Printf("Game %d: %s at %s | level %d, %d gold, %d foes, %d items, %d decisions\n",
				game, res.Kind, res.Node, s.Player.Level, s.Gold,
				s.Counters.EnemiesDefeated, s.Counters.ItemsFound, s.Counters.Decisions)
		}
	}
	fmt.Printf("\nEndings: %d  Defeats: %d  Stalled: %d\n", tally[engine.Ending], tally[engine.Defeat], tally[engine.Stalled])
}
