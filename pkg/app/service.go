package app

import (
	"encoding/json"
	"time"

	"github.com/womat/debug"

	"delayline/pkg/mqtt"
	"delayline/pkg/port"
)

// pollLoop is the dispatch loop of the engine: one Poll per tick, each
// tick one unit of output granularity. It runs until process exit.
func (app *App) pollLoop() {
	ticker := time.NewTicker(app.config.Engine.PollInterval)
	defer ticker.Stop()

	for range ticker.C {
		app.engine.Poll(app.clock.Millis())
	}
}

// readEdges feeds the input line events into the engine.
func (app *App) readEdges() {
	for evt := range app.line.C {
		switch evt.Type {
		case port.RisingEdge:
			app.engine.Rise(evt.At)
		case port.FallingEdge:
			app.engine.Fall(evt.At)
		}
	}
}

// announce reacts on every configuration applied over the control port.
func (app *App) announce() {
	for s := range app.ctrl.C {
		debug.InfoLog.Printf("configuration applied: %+v", s)
		app.publishStatus()
	}
}

// statusLoop publishes the engine status in the configured interval.
func (app *App) statusLoop() {
	if app.config.MQTT.Interval <= 0 {
		return
	}

	for range time.Tick(app.config.MQTT.Interval) {
		app.publishStatus()
	}
}

// publishStatus sends the current engine snapshot to the mqtt broker.
func (app *App) publishStatus() {
	b, err := json.MarshalIndent(app.engine.Snapshot(), "", "  ")
	if err != nil {
		debug.ErrorLog.Printf("publishStatus marshal: %v", err)
		return
	}

	app.mqtt.C <- mqtt.Message{
		Qos:      0,
		Retained: true,
		Topic:    app.config.MQTT.Topic,
		Payload:  b,
	}
}
