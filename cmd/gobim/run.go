package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/philipparndt/gobim/internal/camera"
	"github.com/philipparndt/gobim/internal/controller"
	"github.com/philipparndt/gobim/internal/loader"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/spf13/cobra"
)

var showEvents bool

var runCmd = &cobra.Command{
	Use:   "run [manifest] [operation...]",
	Short: "Apply a sequence of operations to a scene and print the resulting state",
	Long: `Load a manifest and apply operations in order, then print every object with
its visual flags. Operations:

  isolate:NODE       isolate the subtree below NODE
  reset              leave isolation and clear all flags
  pick[:ID]          highlight and frame ID, or clear the highlight
  highlight:ID       highlight ID alone
  unhighlight:ID     remove the highlight from ID
  xray:ID            toggle x-ray of ID
  select:ID          mark ID selected
  deselect:ID        clear the selected flag of ID
  show:ID, hide:ID   change the visibility of ID
  hide-subtree:NODE  hide every object below NODE
  unload:MODEL       unload a model`,
	Args: cobra.MinimumNArgs(1),
	Run:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&showEvents, "events", false, "print every state change")
}

// operation applies one scripted step to a session
type operation func(s *controller.Session) error

// parseOperation turns "verb[:arg]" into an operation
func parseOperation(text string) (operation, error) {
	verb, arg, _ := strings.Cut(text, ":")
	needArg := func(op operation) (operation, error) {
		if arg == "" {
			return nil, fmt.Errorf("operation %q needs an argument", verb)
		}
		return op, nil
	}

	switch verb {
	case "isolate":
		return needArg(func(s *controller.Session) error {
			err := s.Handle(controller.NodeClicked{NodeID: arg})
			if errors.Is(err, controller.ErrEmptySubtree) {
				fmt.Printf("note: %v\n", err)
				return nil
			}
			return err
		})
	case "reset":
		return func(s *controller.Session) error {
			return s.Handle(controller.ResetRequested{})
		}, nil
	case "pick":
		return func(s *controller.Session) error {
			return s.Handle(controller.Picked{ObjectID: arg})
		}, nil
	case "highlight", "unhighlight":
		on := verb == "highlight"
		return needArg(func(s *controller.Session) error {
			return s.Handle(controller.HighlightRequested{ObjectID: arg, On: on})
		})
	case "xray":
		return needArg(func(s *controller.Session) error {
			return s.Handle(controller.XrayToggled{ObjectID: arg})
		})
	case "select", "deselect":
		on := verb == "select"
		return needArg(func(s *controller.Session) error {
			s.Controller().SetSelected(arg, on)
			return nil
		})
	case "show", "hide":
		on := verb == "show"
		return needArg(func(s *controller.Session) error {
			s.Controller().SetVisible(arg, on)
			return nil
		})
	case "hide-subtree":
		return needArg(func(s *controller.Session) error {
			s.Controller().HideSubtree(arg)
			return nil
		})
	case "unload":
		return needArg(func(s *controller.Session) error {
			return s.Handle(controller.ModelUnloaded{ModelID: arg})
		})
	}
	return nil, fmt.Errorf("unknown operation %q", verb)
}

func runRun(cmd *cobra.Command, args []string) {
	cfg, logger := setup()
	manifest := args[0]

	ops := make([]operation, 0, len(args)-1)
	for _, text := range args[1:] {
		op, err := parseOperation(text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		ops = append(ops, op)
	}

	cam := camera.New(geometry.NewBoundingBox(), logger)
	session := controller.NewSession(scene.New(), cam, logger, controllerOptions(cfg)...)
	if showEvents {
		session.OnReady(func(c *controller.Controller) {
			c.Subscribe(func(ev controller.StateChanged) {
				fmt.Printf("event %s: %s mode=%s objects=%v\n", ev.ID, ev.Op, ev.Mode, ev.Objects)
			})
		})
	}

	if err := loader.Feed(cmd.Context(), session, manifest, loaderOptions(cfg, logger)...); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}

	for i, op := range ops {
		if err := op(session); err != nil {
			fmt.Fprintf(os.Stderr, "Error in operation %d (%s): %v\n", i+1, args[i+1], err)
			os.Exit(1)
		}
	}

	ctrl := session.Controller()
	fmt.Println("Scene State")
	fmt.Println("===========")
	fmt.Printf("Mode: %s\n", ctrl.Mode())
	fmt.Printf("Highlighted: %s\n", strings.Join(ctrl.Selection(), ", "))
	view := cam.View()
	fmt.Printf("Camera: target %s, distance %.3f\n\n", view.Target, view.Distance)
	printTree(os.Stdout, session.Scene(), true)
}
