package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/replypilot/internal/engine"
	"github.com/replypilot/internal/signals"
)

// DecideCommand returns an offline decision command: run the gate against a
// message body without touching the classifier or any transport. Useful for
// replaying a real message from the delivery log.
func DecideCommand() *cli.Command {
	return &cli.Command{
		Name:      "decide",
		Usage:     "Evaluate the auto-response gate against a message body",
		ArgsUsage: "<body>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "template",
				Aliases:  []string{"t"},
				Usage:    "Classifier template label, e.g. YES_SEND",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "signal",
				Usage: "Model-reported signal (repeatable)",
			},
			&cli.IntFlag{
				Name:  "auto-replies",
				Usage: "Automated replies already sent on the thread",
			},
			&cli.BoolFlag{
				Name:  "agreement-sent",
				Usage: "The agreement already went out on this thread",
			},
			&cli.BoolFlag{
				Name:  "manual-owner",
				Usage: "A human owns this thread",
			},
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Confidence threshold override",
			},
		},
		Action: runDecide,
	}
}

func runDecide(c *cli.Context) error {
	body := strings.Join(c.Args().Slice(), " ")

	modelSignals := make([]signals.Signal, 0)
	for _, s := range c.StringSlice("signal") {
		modelSignals = append(modelSignals, signals.Signal(s))
	}

	result := engine.Decide(engine.Input{
		Template:     engine.Template(c.String("template")),
		Body:         body,
		ModelSignals: modelSignals,
		Thread: engine.ThreadState{
			AutoRepliesSent: c.Int("auto-replies"),
			AgreementSent:   c.Bool("agreement-sent"),
			ManualOwner:     c.Bool("manual-owner"),
		},
		Threshold: c.Float64("threshold"),
	})

	fmt.Printf("Template:    %s\n", result.EffectiveTemplate)
	fmt.Printf("Auto-send:   %v\n", result.OKToAutoRespond)
	fmt.Printf("Confidence:  %.2f\n", result.Confidence)
	if result.HardStop {
		fmt.Println("Hard stop:   yes")
	}
	if len(result.BlockingReasons) > 0 {
		fmt.Printf("Blocked by:  %s\n", strings.Join(result.BlockingReasons, ", "))
	}
	if sigs := result.Signals.List(); len(sigs) > 0 {
		out := make([]string, 0, len(sigs))
		for _, s := range sigs {
			out = append(out, string(s))
		}
		fmt.Printf("Signals:     %s\n", strings.Join(out, ", "))
	}
	return nil
}
