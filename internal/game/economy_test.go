package game

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"pizza-rush/internal/config"
)

func newTestEconomy(t *testing.T) (*Economy, *Bus) {
	t.Helper()
	bus := NewBus()
	path := filepath.Join(t.TempDir(), "profile.json")
	return NewEconomy(bus, path), bus
}

func TestDeliveryPayoutAddsMoney(t *testing.T) {
	econ, bus := newTestEconomy(t)

	var money []MoneyPayload
	bus.Subscribe(EventTypeMoneyChanged, func(ev Event) {
		var p MoneyPayload
		if err := ev.Decode(&p); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		money = append(money, p)
	})

	bus.Emit(EventTypeDeliveryComplete, 1, "delivery", DeliveryPayload{Type: "standard", Payout: 120})

	if econ.Money() != 120 {
		t.Errorf("Expected $120, got $%d", econ.Money())
	}
	if econ.Profile().TotalDeliveries != 1 {
		t.Errorf("Expected 1 delivery recorded, got %d", econ.Profile().TotalDeliveries)
	}
	if len(money) != 1 || money[0].Reason != "delivery" || money[0].Delta != 120 {
		t.Errorf("Bad money event: %+v", money)
	}
}

func TestTrickCashIsTenthOfScore(t *testing.T) {
	econ, bus := newTestEconomy(t)

	bus.Emit(EventTypeTrickSuccess, 1, "tricks", TrickPayload{Score: 450})

	if econ.Money() != 45 {
		t.Errorf("Expected $45 from a 450 trick, got $%d", econ.Money())
	}
	if econ.Profile().BestTrickScore != 450 {
		t.Errorf("Best trick score not recorded: %d", econ.Profile().BestTrickScore)
	}

	// A smaller trick pays but doesn't displace the record
	bus.Emit(EventTypeTrickSuccess, 2, "tricks", TrickPayload{Score: 150})
	if econ.Profile().BestTrickScore != 450 {
		t.Errorf("Best trick score regressed: %d", econ.Profile().BestTrickScore)
	}
}

func TestPurchaseDeductsAndEmits(t *testing.T) {
	econ, bus := newTestEconomy(t)
	econ.profile.Money = 1000

	var purchased []UpgradePayload
	bus.Subscribe(EventTypeUpgradePurchased, func(ev Event) {
		var p UpgradePayload
		if err := ev.Decode(&p); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		purchased = append(purchased, p)
	})

	if !econ.Purchase("speed") {
		t.Fatal("Purchase refused with sufficient funds")
	}
	if econ.Money() != 800 {
		t.Errorf("Expected $800 after a $200 upgrade, got $%d", econ.Money())
	}
	if econ.UpgradeLevel("speed") != 1 {
		t.Errorf("Expected level 1, got %d", econ.UpgradeLevel("speed"))
	}
	if len(purchased) != 1 || purchased[0].Track != "speed" || purchased[0].Cost != 200 {
		t.Errorf("Bad purchase event: %+v", purchased)
	}

	// Cost doubles per level
	if econ.UpgradeCost("speed") != 400 {
		t.Errorf("Expected next level at $400, got $%d", econ.UpgradeCost("speed"))
	}
}

func TestPurchaseRefusals(t *testing.T) {
	econ, _ := newTestEconomy(t)

	if econ.Purchase("speed") {
		t.Error("Purchase succeeded with $0")
	}
	if econ.Purchase("warp-drive") {
		t.Error("Purchase succeeded for an unknown track")
	}

	// Maxed-out track
	econ.profile.Money = 1 << 30
	econ.profile.Upgrades["spin"] = UpgradeTracks["spin"].MaxLevel
	if econ.UpgradeCost("spin") != 0 {
		t.Error("Maxed track still quotes a cost")
	}
	if econ.Purchase("spin") {
		t.Error("Purchase succeeded on a maxed track")
	}
}

func TestApplyUpgradesScalesTuning(t *testing.T) {
	econ, _ := newTestEconomy(t)
	econ.profile.Upgrades["speed"] = 2
	econ.profile.Upgrades["spin"] = 1

	basePhys := config.DefaultPhysics()
	baseTricks := config.DefaultTricks()
	phys, tricks := econ.ApplyUpgrades(basePhys, baseTricks)

	wantSpeed := basePhys.MaxSpeed * 1.16
	if math.Abs(phys.MaxSpeed-wantSpeed) > 1e-9 {
		t.Errorf("Expected max speed %f, got %f", wantSpeed, phys.MaxSpeed)
	}
	wantSpin := baseTricks.SpinRate * 1.1
	if math.Abs(tricks.SpinRate-wantSpin) > 1e-9 {
		t.Errorf("Expected spin rate %f, got %f", wantSpin, tricks.SpinRate)
	}
	// Untouched tracks stay at base
	if phys.ChargeRate != basePhys.ChargeRate {
		t.Error("Charge rate changed without an upgrade")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	bus := NewBus()
	path := filepath.Join(t.TempDir(), "profile.json")

	econ := NewEconomy(bus, path)
	econ.profile.Money = 750
	econ.profile.Upgrades["flight"] = 2
	econ.profile.BestStreak = 9
	econ.dirty = true
	econ.Save()

	reloaded := NewEconomy(NewBus(), path)
	if reloaded.Money() != 750 {
		t.Errorf("Expected $750 after reload, got $%d", reloaded.Money())
	}
	if reloaded.UpgradeLevel("flight") != 2 {
		t.Errorf("Expected flight level 2, got %d", reloaded.UpgradeLevel("flight"))
	}
	if reloaded.Profile().BestStreak != 9 {
		t.Errorf("Expected best streak 9, got %d", reloaded.Profile().BestStreak)
	}
}

func TestCorruptProfileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	econ := NewEconomy(NewBus(), path)
	if econ.Money() != 0 {
		t.Errorf("Corrupt profile produced money: $%d", econ.Money())
	}
	if econ.Profile().Upgrades == nil {
		t.Error("Defaults missing the upgrades map")
	}
}

func TestRecordStreakKeepsBest(t *testing.T) {
	econ, _ := newTestEconomy(t)

	econ.RecordStreak(5)
	econ.RecordStreak(3)

	if econ.Profile().BestStreak != 5 {
		t.Errorf("Expected best streak 5, got %d", econ.Profile().BestStreak)
	}
}

func TestOrderedUpgradeTracksIsStable(t *testing.T) {
	tracks := OrderedUpgradeTracks()

	if len(tracks) != len(UpgradeTracks) {
		t.Fatalf("Expected %d tracks, got %d", len(UpgradeTracks), len(tracks))
	}
	want := []string{"speed", "charge", "flight", "spin"}
	for i, id := range want {
		if tracks[i].ID != id {
			t.Errorf("Track %d: expected %s, got %s", i, id, tracks[i].ID)
		}
	}
}
