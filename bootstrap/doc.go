// Package bootstrap provides application initialization.
// It extracts the wiring of configuration, logging and the matcher registry
// from the command layer into testable components.
//
// Usage:
//
//	app, err := bootstrap.NewApp(bootstrap.Options{ConfigPath: path})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Shutdown()
//
//	m, err := app.Registry.New("be_even", nil)
//	...
//	err = app.Engine.To(4, m)
package bootstrap
