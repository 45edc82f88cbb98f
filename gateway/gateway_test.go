package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evedex/exchange-sdk-go/config"
	"github.com/evedex/exchange-sdk-go/entity"
)

func testGateway(t *testing.T) *Gateway {
	t.Helper()
	params, err := config.ParamsFor(config.EnvironmentDev)
	require.NoError(t, err)
	return New(params, Options{})
}

func TestInstrumentStateGuardDropsStale(t *testing.T) {
	g := testGateway(t)

	var got []entity.InstrumentState
	g.OnInstrumentState.Listen(func(s entity.InstrumentState) { got = append(got, s) })

	base := time.Now()
	g.applyInstrumentState(entity.InstrumentState{Name: "BTCUSDT", UpdatedAt: base})
	g.applyInstrumentState(entity.InstrumentState{Name: "BTCUSDT", UpdatedAt: base.Add(-time.Second)})
	g.applyInstrumentState(entity.InstrumentState{Name: "BTCUSDT", UpdatedAt: base})
	g.applyInstrumentState(entity.InstrumentState{Name: "ETHUSDT", UpdatedAt: base.Add(-time.Second)})
	g.applyInstrumentState(entity.InstrumentState{Name: "BTCUSDT", UpdatedAt: base.Add(time.Second)})

	require.Len(t, got, 3)
	assert.Equal(t, "BTCUSDT", got[0].Name)
	assert.Equal(t, "ETHUSDT", got[1].Name)
	assert.Equal(t, base.Add(time.Second), got[2].UpdatedAt)
}

func TestMatcherStateGuardIsSingleton(t *testing.T) {
	g := testGateway(t)

	var got []entity.MatcherUpdateEvent
	g.OnMatcherState.Listen(func(ev entity.MatcherUpdateEvent) { got = append(got, ev) })

	base := time.Now()
	g.applyMatcherState(entity.MatcherUpdateEvent{State: entity.MatcherStateActive, UpdatedAt: base})
	g.applyMatcherState(entity.MatcherUpdateEvent{State: entity.MatcherStateHalted, UpdatedAt: base})
	g.applyMatcherState(entity.MatcherUpdateEvent{State: entity.MatcherStateHalted, UpdatedAt: base.Add(time.Minute)})

	require.Len(t, got, 2)
	assert.Equal(t, entity.MatcherStateActive, got[0].State)
	assert.Equal(t, entity.MatcherStateHalted, got[1].State)
}

func TestFundingRateGuardPerInstrument(t *testing.T) {
	g := testGateway(t)

	var got []entity.FundingRateEvent
	g.OnFundingRate.Listen(func(ev entity.FundingRateEvent) { got = append(got, ev) })

	base := time.Now()
	g.applyFundingRate(entity.FundingRateEvent{Instrument: "BTCUSDT", CreatedAt: base})
	g.applyFundingRate(entity.FundingRateEvent{Instrument: "BTCUSDT", CreatedAt: base})
	g.applyFundingRate(entity.FundingRateEvent{Instrument: "ETHUSDT", CreatedAt: base})

	require.Len(t, got, 2)
}

func TestUnListenClearsWatermarks(t *testing.T) {
	g := testGateway(t)

	base := time.Now()
	g.applyInstrumentState(entity.InstrumentState{Name: "BTCUSDT", UpdatedAt: base})
	require.Equal(t, 1, g.instrumentStates.Len())

	g.UnListenInstrumentState()
	assert.Equal(t, 0, g.instrumentStates.Len())

	var fired int
	g.OnInstrumentState.Listen(func(entity.InstrumentState) { fired++ })
	g.applyInstrumentState(entity.InstrumentState{Name: "BTCUSDT", UpdatedAt: base.Add(-time.Hour)})
	assert.Equal(t, 1, fired)
}

func TestShortUUIDShape(t *testing.T) {
	id := ShortUUID()
	assert.Len(t, id, 32)
	assert.NotContains(t, id, "-")

	v2 := OrderIDV2()
	assert.Len(t, v2, 34)
	assert.Equal(t, "0x", v2[:2])
}
