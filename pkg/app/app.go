package app

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"

	"delayline/pkg/app/config"
	"delayline/pkg/ctrlport"
	"delayline/pkg/delayline"
	"delayline/pkg/mqtt"
	"delayline/pkg/port"
	"delayline/pkg/raspberry"
)

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Webserver.URL parameter
	// and makes it easier to get params out of e.g.
	// url: https://0.0.0.0:7844/?minTls=1.2&bodyLimit=50MB
	urlParsed *url.URL

	// clock is the shared monotonic millisecond counter; edge events
	// and the polling loop must be timed against the same epoch
	clock port.Clock

	// engine is the delay line scheduling engine
	engine *delayline.Engine

	// chip is the handler to the gpio character device
	chip *raspberry.Chip

	// line is the watched input line
	line *raspberry.Line

	// output is the driven output line
	output *raspberry.Output

	// ctrl is the serial control port the host reconfigures over
	ctrl *ctrlport.Handler

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// restart signals application restart
	restart chan struct{}
	// shutdown signals application shutdown
	shutdown chan struct{}
}

// New checks the web server URL and initializes the main app structure.
func New(config *config.Config) (*App, error) {
	u, err := url.Parse(config.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", config.Webserver.URL, err.Error())
		return &App{}, err
	}

	return &App{
		config:    config,
		urlParsed: u,

		web:   fiber.New(),
		mqtt:  mqtt.New(),
		clock: port.NewClock(),

		restart:  make(chan struct{}),
		shutdown: make(chan struct{}),
	}, err
}

// Run starts the application.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	go app.mqtt.Service()
	go app.runWebServer()
	go app.readEdges()
	go app.pollLoop()
	go app.announce()
	go app.statusLoop()

	return nil
}

// init initializes the application.
func (app *App) init() (err error) {
	if app.output, err = raspberry.NewOutput(app.config.Output.Gpio); err != nil {
		debug.ErrorLog.Printf("can't open output pin: %v", err)
		return err
	}

	if app.engine, err = delayline.New(app.output, app.config.Engine.Capacity, uint32(app.config.Engine.DelayFactor)); err != nil {
		debug.ErrorLog.Printf("can't create engine: %v", err)
		return err
	}

	if app.chip, err = raspberry.Open(); err != nil {
		debug.ErrorLog.Printf("can't open gpio: %v", err)
		return err
	}

	if app.line, err = app.chip.NewLine(app.config.Input.Gpio, app.config.Input.Terminator,
		app.config.Input.BounceTime, app.clock); err != nil {
		debug.ErrorLog.Printf("can't open input line: %v", err)
		return err
	}

	if app.ctrl, err = ctrlport.Open(app.config.Serial.Port, app.config.Serial.BaudRate, app.engine); err != nil {
		debug.ErrorLog.Printf("can't open control port: %v", err)
		return err
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker %v", err)
		return err
	}

	// initDefaultRoutes should always be called last because it may
	// access things which must be initialized before
	app.initDefaultRoutes()

	return nil
}

// Restart returns the read only restart channel.
// Restart is used to be able to react on application restart. (see cmd/delayline.go)
func (app *App) Restart() <-chan struct{} {
	return app.restart
}

// Shutdown returns the read only shutdown channel.
// Shutdown is used to be able to react on application shutdown. (see cmd/delayline.go)
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

func (app *App) Close() error {
	if app.ctrl != nil {
		_ = app.ctrl.Close()
	}
	if app.line != nil {
		_ = app.line.Close()
	}
	if app.chip != nil {
		_ = app.chip.Close()
	}
	if app.output != nil {
		_ = app.output.Close()
	}
	if app.mqtt != nil {
		_ = app.mqtt.Disconnect()
	}

	return nil
}
