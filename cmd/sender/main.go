package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/ignite/open-tracker/internal/config"
	"github.com/ignite/open-tracker/internal/sender"
)

const defaultBody = `<html>
<head><title>{{ subject }}</title></head>
<body>
<h1>Hello!</h1>
<p>This message's open event is tracked.</p>
</body>
</html>`

func main() {
	var (
		to           = flag.String("to", "", "recipient address (required)")
		subject      = flag.String("subject", "A Tracked Message", "email subject")
		bodyFile     = flag.String("body", "", "path to an HTML body template (Liquid); built-in body when empty")
		configPath   = flag.String("config", "config/config.yaml", "path to config file")
		registerOnly = flag.Bool("register-only", false, "register and print tracking URLs without sending")
	)
	flag.Parse()

	if *to == "" {
		log.Fatal("-to is required")
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	bodySrc := defaultBody
	if *bodyFile != "" {
		data, err := os.ReadFile(*bodyFile)
		if err != nil {
			log.Fatalf("read body template: %v", err)
		}
		bodySrc = string(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Register the email with the tracking server.
	client := sender.NewClient(cfg.Sender.APIURL)
	res, err := client.Register(ctx, *to, *subject)
	if err != nil {
		log.Fatalf("Could not register email with tracking server: %v", err)
	}
	log.Printf("registered email for %s: tracking URL %s", *to, res.TrackingURL)

	if *registerOnly {
		log.Printf("pixel:      %s", res.TrackingURL)
		log.Printf("stylesheet: %s", res.StylesheetURL)
		log.Printf("confirm:    %s", res.ConfirmationURL)
		return
	}

	// 2. Render the body and inject the tracking resources.
	html, err := sender.NewBodyTemplate().Render(bodySrc, sender.DefaultBindings(*to, *subject))
	if err != nil {
		log.Fatalf("render body: %v", err)
	}
	html = sender.InjectTracking(html, res)

	// 3. Deliver.
	var mailer sender.Mailer
	switch cfg.Sender.Provider {
	case "ses":
		mailer, err = sender.NewSESMailer(ctx, cfg.Sender.SES, cfg.Sender.FromAddress)
		if err != nil {
			log.Fatalf("ses mailer: %v", err)
		}
	case "smtp":
		if cfg.Sender.SMTP.Host == "" {
			log.Fatal("SMTP_SERVER is required for the smtp provider")
		}
		mailer = sender.NewSMTPMailer(cfg.Sender.SMTP, cfg.Sender.FromAddress)
	default:
		log.Fatalf("unknown sender provider %q", cfg.Sender.Provider)
	}

	if err := mailer.Send(ctx, *to, *subject, html); err != nil {
		log.Fatalf("send: %v", err)
	}
	log.Printf("sent tracked email to %s (id=%s)", *to, res.TrackingID)
}
