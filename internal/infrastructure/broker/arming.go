package broker

import (
	"os"

	"go.uber.org/zap"
)

// ArmedEnvVar is the out-of-band arming signal. It must hold exactly
// "YES", in addition to the persisted live-trading config flag, before
// any state-changing call is allowed. The variable is re-read before
// every write, not only at startup.
const ArmedEnvVar = "LIVE_TRADING_ARMED"

// ArmingGuard evaluates the two-factor live-trading interlock.
type ArmingGuard struct {
	liveConfigured bool
	envLookup      func(string) string
}

func NewArmingGuard(liveConfigured bool) *ArmingGuard {
	return &ArmingGuard{liveConfigured: liveConfigured, envLookup: os.Getenv}
}

// LiveConfigured reports the persisted configuration flag.
func (g *ArmingGuard) LiveConfigured() bool { return g.liveConfigured }

// ArmedSignal reports the out-of-band environment signal as of now.
func (g *ArmingGuard) ArmedSignal() bool { return g.envLookup(ArmedEnvVar) == "YES" }

// Armed reports whether both factors agree that live trading is
// permitted.
func (g *ArmingGuard) Armed() bool { return g.liveConfigured && g.ArmedSignal() }

// LogState emits a one-time startup line describing the interlock.
func (g *ArmingGuard) LogState(log *zap.Logger) {
	switch {
	case g.Armed():
		log.Warn("!!! LIVE TRADING FULLY ARMED & ENABLED !!! Real orders WILL be sent.")
	case g.liveConfigured && !g.ArmedSignal():
		log.Warn("live trading configured but BLOCKED by missing env signal",
			zap.String("required", ArmedEnvVar+"=YES"))
	default:
		log.Info("live trading disabled, orders will be mocked (dry-run)")
	}
}
