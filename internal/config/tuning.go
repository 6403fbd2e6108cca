package config

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// tuningFile is the on-disk YAML shape for feel-value overrides.
// Every section is optional; absent sections keep the compiled defaults.
type tuningFile struct {
	Physics *PhysicsConfig `yaml:"physics"`
	Tricks  *TrickConfig   `yaml:"tricks"`
	Aim     *AimConfig     `yaml:"aim"`
	World   *WorldConfig   `yaml:"world"`
}

// ApplyTuningFile overlays feel values from a YAML file onto cfg.
// The file replaces whole sections: a provided physics section must be
// complete. Partial hand-edits belong in env vars, not here.
func ApplyTuningFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("⚠️ Tuning file unreadable, keeping defaults: %v", err)
		return errors.Wrap(err, "reading tuning file")
	}

	var tf tuningFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		log.Printf("⚠️ Tuning file malformed, keeping defaults: %v", err)
		return errors.Wrap(err, "parsing tuning YAML")
	}

	if tf.Physics != nil {
		cfg.Physics = *tf.Physics
	}
	if tf.Tricks != nil {
		cfg.Tricks = *tf.Tricks
	}
	if tf.Aim != nil {
		cfg.Aim = *tf.Aim
	}
	if tf.World != nil {
		cfg.World = *tf.World
	}

	log.Printf("🔧 Tuning loaded from %s", path)
	return nil
}
