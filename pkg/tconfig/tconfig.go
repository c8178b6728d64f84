// Package tconfig defines the tournament configuration data model (spec §3) and its persistence:
// a human-edited YAML file for the configuration itself, matching the teacher's preference for
// plain data structs over a bespoke config framework.
package tconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/herohde/morlock/pkg/gameloop"
	"github.com/herohde/morlock/pkg/pairing"
	"github.com/herohde/morlock/pkg/stats"
	"github.com/herohde/morlock/pkg/variant"
	"github.com/seekerror/stdlib/pkg/lang"
	"gopkg.in/yaml.v3"
)

// EngineOption is a single UCI option to set during the handshake (spec §3 EngineConfig).
type EngineOption struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// EngineConfig describes one tournament participant (spec §3).
type EngineConfig struct {
	ID      string         `yaml:"id,omitempty" json:"id,omitempty"`
	Name    string         `yaml:"name" json:"name"`
	Path    string         `yaml:"path" json:"path"`
	Args    []string       `yaml:"args,omitempty" json:"args,omitempty"`
	Dir     string         `yaml:"dir,omitempty" json:"dir,omitempty"`
	Options []EngineOption `yaml:"options,omitempty" json:"options,omitempty"`
	Author  string         `yaml:"author,omitempty" json:"author,omitempty"`
}

// TimeControlConfig is the base/increment time control (spec §3).
type TimeControlConfig struct {
	BaseMs int `yaml:"base_ms" json:"base_ms"`
	IncMs  int `yaml:"inc_ms" json:"inc_ms"`
}

// AdjudicationConfig parameterizes the resign/draw early-termination heuristics (spec §3/§4.4).
type AdjudicationConfig struct {
	ResignScore     int `yaml:"resign_score" json:"resign_score"`
	ResignMoveCount int `yaml:"resign_move_count" json:"resign_move_count"`
	DrawScore       int `yaml:"draw_score" json:"draw_score"`
	DrawMoveNumber  int `yaml:"draw_move_number" json:"draw_move_number"`
	DrawMoveCount   int `yaml:"draw_move_count" json:"draw_move_count"`
}

// OpeningConfig selects the starting positions for the schedule (spec §3).
type OpeningConfig struct {
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
	FEN   string `yaml:"fen,omitempty" json:"fen,omitempty"`
	Order string `yaml:"order,omitempty" json:"order,omitempty"` // "sequential" | "random"
	// BookPath is carried for parity with the desktop shell's opening-book selector; this repo's
	// pkg/opening reads plain position-list files, not a compiled book format.
	BookPath string `yaml:"book_path,omitempty" json:"book_path,omitempty"`
}

// SPRTConfig enables and parameterizes the sequential test (spec §3/§4.8).
type SPRTConfig struct {
	Enabled   bool    `yaml:"enabled" json:"enabled"`
	H0Elo     float64 `yaml:"h0_elo" json:"h0_elo"`
	H1Elo     float64 `yaml:"h1_elo" json:"h1_elo"`
	DrawRatio float64 `yaml:"draw_ratio" json:"draw_ratio"`
	Alpha     float64 `yaml:"alpha" json:"alpha"`
	Beta      float64 `yaml:"beta" json:"beta"`
}

// TournamentConfig is the full tournament configuration (spec §3/§6).
type TournamentConfig struct {
	Mode               string              `yaml:"mode" json:"mode"` // "match" | "gauntlet" | "round-robin"
	Engines            []EngineConfig      `yaml:"engines" json:"engines"`
	TimeControl        TimeControlConfig   `yaml:"time_control" json:"time_control"`
	GamesCount         int                 `yaml:"games_count" json:"games_count"`
	SwapSides          bool                `yaml:"swap_sides" json:"swap_sides"`
	Opening            OpeningConfig       `yaml:"opening" json:"opening"`
	Variant            string              `yaml:"variant,omitempty" json:"variant,omitempty"`
	Concurrency        int                 `yaml:"concurrency" json:"concurrency"`
	PGNPath            string              `yaml:"pgn_path" json:"pgn_path"`
	EventName          string              `yaml:"event_name,omitempty" json:"event_name,omitempty"`
	DisabledEngineIDs  []string            `yaml:"disabled_engine_ids,omitempty" json:"disabled_engine_ids,omitempty"`
	ResumeStatePath    string              `yaml:"resume_state_path,omitempty" json:"resume_state_path,omitempty"`
	ResumeFromState    bool                `yaml:"resume_from_state,omitempty" json:"resume_from_state,omitempty"`
	Adjudication       AdjudicationConfig  `yaml:"adjudication" json:"adjudication"`
	SPRT               SPRTConfig          `yaml:"sprt" json:"sprt"`
}

// Default fills in the defaults spec §3 names for zero-value fields the caller left unset.
func (c *TournamentConfig) Default() {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.GamesCount <= 0 {
		c.GamesCount = 1
	}
}

// Validate checks the minimal structural invariants spec §3 requires before a tournament starts.
func (c TournamentConfig) Validate() error {
	if len(c.Engines) < 2 {
		return fmt.Errorf("tconfig: at least 2 engines required, got %d", len(c.Engines))
	}
	if _, ok := pairing.ParseMode(c.Mode); !ok {
		return fmt.Errorf("tconfig: unknown mode %q", c.Mode)
	}
	if _, ok := variant.ParseVariant(c.Variant); !ok {
		return fmt.Errorf("tconfig: unknown variant %q", c.Variant)
	}
	return nil
}

// PairingMode resolves the configured mode string.
func (c TournamentConfig) PairingMode() pairing.Mode {
	m, _ := pairing.ParseMode(c.Mode)
	return m
}

// VariantKind resolves the configured variant string.
func (c TournamentConfig) VariantKind() variant.Variant {
	v, _ := variant.ParseVariant(c.Variant)
	return v
}

// TimeControlValue converts the YAML-friendly millisecond fields into a gameloop.TimeControl.
func (c TournamentConfig) TimeControlValue() gameloop.TimeControl {
	return gameloop.TimeControl{
		Base: time.Duration(c.TimeControl.BaseMs) * time.Millisecond,
		Inc:  time.Duration(c.TimeControl.IncMs) * time.Millisecond,
	}
}

// AdjudicationValue converts to the gameloop's adjudication config type.
func (c TournamentConfig) AdjudicationValue() gameloop.AdjudicationConfig {
	return gameloop.AdjudicationConfig{
		ResignScore:     c.Adjudication.ResignScore,
		ResignMoveCount: c.Adjudication.ResignMoveCount,
		DrawMoveNumber:  c.Adjudication.DrawMoveNumber,
		DrawScore:       c.Adjudication.DrawScore,
		DrawMoveCount:   c.Adjudication.DrawMoveCount,
	}
}

// SPRTConfigValue converts to the stats package's SPRT config, if enabled.
func (c TournamentConfig) SPRTConfigValue() lang.Optional[stats.SPRTConfig] {
	if !c.SPRT.Enabled {
		return lang.Optional[stats.SPRTConfig]{}
	}
	return lang.Some(stats.SPRTConfig{
		H0Elo: c.SPRT.H0Elo, H1Elo: c.SPRT.H1Elo,
		DrawRatio: c.SPRT.DrawRatio, Alpha: c.SPRT.Alpha, Beta: c.SPRT.Beta,
	})
}

// Load reads a TournamentConfig from a YAML file at path and applies defaults.
func Load(path string) (TournamentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TournamentConfig{}, fmt.Errorf("tconfig: read %v: %w", path, err)
	}

	var cfg TournamentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return TournamentConfig{}, fmt.Errorf("tconfig: parse %v: %w", path, err)
	}
	cfg.Default()
	return cfg, nil
}

// Save writes a TournamentConfig as YAML to path, for round-tripping a resumed configuration or
// exporting the effective configuration a caller constructed programmatically.
func Save(path string, cfg TournamentConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("tconfig: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("tconfig: write %v: %w", path, err)
	}
	return nil
}
