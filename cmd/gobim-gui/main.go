package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/philipparndt/gobim/internal/camera"
	"github.com/philipparndt/gobim/internal/config"
	"github.com/philipparndt/gobim/internal/controller"
	"github.com/philipparndt/gobim/internal/loader"
	"github.com/philipparndt/gobim/internal/logging"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/analysis"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/viewer"
)

type App struct {
	window fyne.Window
	cfg    config.Config
	logger *slog.Logger

	session *controller.Session
	camera  *camera.Camera
	cancel  context.CancelFunc

	tree        *widget.Tree
	sceneView   *viewer.SceneView
	cameraGen   uint64
	selected    string
	modeLabel   *widget.Label
	detailLabel *widget.Label
	sceneLabel  *widget.Label
	cameraLabel *widget.Label
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	a := app.New()
	w := a.NewWindow("GoBIM - Scene Objects")

	appInstance := &App{
		window: w,
		cfg:    cfg,
		logger: logger,
	}

	if len(os.Args) > 1 {
		appInstance.loadManifest(os.Args[1])
	} else {
		appInstance.showWelcomeScreen()
	}

	w.SetOnClosed(func() {
		if appInstance.cancel != nil {
			appInstance.cancel()
		}
	})
	w.Resize(fyne.NewSize(900, 700))
	w.ShowAndRun()
}

func (a *App) showWelcomeScreen() {
	welcomeLabel := widget.NewLabel("Welcome to GoBIM")
	welcomeLabel.TextStyle = fyne.TextStyle{Bold: true}

	instructionLabel := widget.NewLabel("Click 'Open Manifest' to load a building model")

	openButton := widget.NewButton("Open Manifest", func() {
		a.showFileDialog()
	})

	content := container.NewVBox(
		layout.NewSpacer(),
		container.NewCenter(welcomeLabel),
		container.NewCenter(instructionLabel),
		layout.NewSpacer(),
		container.NewCenter(openButton),
		layout.NewSpacer(),
	)

	a.window.SetContent(content)
}

func (a *App) showFileDialog() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		a.loadManifest(reader.URI().Path())
	}, a.window)
}

// loadManifest replaces the current session. Loading runs in the background;
// the panel stays inert until the first model arrives.
func (a *App) loadManifest(path string) {
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.camera = camera.New(geometry.NewBoundingBox(), a.logger)
	a.session = controller.NewSession(scene.New(), a.camera, a.logger, controller.WithPolicy(a.cfg.Policy()))
	a.selected = ""
	a.cameraGen = 0
	a.setupMainUI(path)

	a.session.OnReady(func(c *controller.Controller) {
		c.Subscribe(func(controller.StateChanged) {
			fyne.Do(a.refresh)
		})
	})

	opts := []loader.Option{loader.WithOpenSCAD(a.cfg.OpenSCAD), loader.WithLogger(a.logger)}
	session := a.session
	go func() {
		if err := loader.Feed(ctx, session, path, opts...); err != nil {
			fyne.Do(func() {
				dialog.ShowError(fmt.Errorf("failed to load manifest: %w", err), a.window)
			})
			return
		}
		fyne.Do(a.refresh)

		err := loader.Watch(ctx, session, path, a.cfg.WatchDebounce, func() {
			fyne.Do(a.refresh)
		}, opts...)
		if err != nil {
			a.logger.Warn("watch stopped", "err", err)
		}
	}()
}

func (a *App) setupMainUI(path string) {
	a.modeLabel = widget.NewLabel("Loading...")
	a.modeLabel.TextStyle = fyne.TextStyle{Bold: true}
	a.detailLabel = widget.NewLabel("")
	a.sceneLabel = widget.NewLabel("")
	a.cameraLabel = widget.NewLabel("")

	a.tree = widget.NewTree(a.childIDs, a.isBranch,
		func(bool) fyne.CanvasObject {
			return widget.NewLabel("node")
		},
		func(id widget.TreeNodeID, _ bool, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(a.nodeLabel(id))
		},
	)
	a.tree.OnSelected = func(id widget.TreeNodeID) {
		a.selected = id
		if err := a.session.Handle(controller.NodeClicked{NodeID: id}); err != nil {
			a.logger.Debug("isolate", "node", id, "err", err)
		}
		// the tree only reports changes, so a second click on the same node
		// needs the node to be unselected again
		a.tree.Unselect(id)
		a.refresh()
	}

	a.sceneView = viewer.NewSceneView()
	a.sceneView.SetOnPick(func(id string) {
		_ = a.session.Handle(controller.Picked{ObjectID: id})
	})

	resetButton := widget.NewButton("Reset", func() {
		_ = a.session.Handle(controller.ResetRequested{})
		a.tree.UnselectAll()
		a.selected = ""
		a.refresh()
	})
	highlightButton := widget.NewButton("Highlight", func() {
		_ = a.session.Handle(controller.Picked{ObjectID: a.selected})
	})
	clearButton := widget.NewButton("Clear Highlight", func() {
		_ = a.session.Handle(controller.Picked{})
	})
	xrayButton := widget.NewButton("Toggle X-Ray", func() {
		_ = a.session.Handle(controller.XrayToggled{ObjectID: a.selected})
	})
	hideButton := widget.NewButton("Hide Subtree", func() {
		a.session.Controller().HideSubtree(a.selected)
	})
	openButton := widget.NewButton("Open Manifest", func() {
		a.showFileDialog()
	})

	infoPanel := container.NewVBox(
		widget.NewLabel("Manifest:"),
		widget.NewLabel(path),
		widget.NewSeparator(),
		a.modeLabel,
		widget.NewSeparator(),
		widget.NewLabel("Selected Node:"),
		a.detailLabel,
		widget.NewSeparator(),
		widget.NewLabel("Scene:"),
		a.sceneLabel,
		a.cameraLabel,
		widget.NewSeparator(),
		resetButton,
		highlightButton,
		clearButton,
		xrayButton,
		hideButton,
		widget.NewSeparator(),
		openButton,
	)

	infoScroll := container.NewVScroll(infoPanel)
	infoScroll.SetMinSize(fyne.NewSize(300, 0))

	split := container.NewHSplit(a.tree, a.sceneView)
	split.SetOffset(0.35)

	content := container.NewBorder(nil, nil, nil, infoScroll, split)
	a.window.SetContent(content)
}

func (a *App) childIDs(id widget.TreeNodeID) []widget.TreeNodeID {
	if id == "" {
		return a.session.Scene().Roots()
	}
	return a.session.Scene().Children(id)
}

func (a *App) isBranch(id widget.TreeNodeID) bool {
	if id == "" {
		return true
	}
	return len(a.session.Scene().Children(id)) > 0
}

func (a *App) nodeLabel(id string) string {
	sc := a.session.Scene()
	n, ok := sc.Node(id)
	if !ok {
		return id
	}
	label := n.Name
	if label == "" {
		label = n.ID
	}
	if n.Kind != "" {
		label = fmt.Sprintf("%s (%s)", label, n.Kind)
	}
	if st, ok := sc.State(id); ok {
		var marks []string
		if !st.Visible {
			marks = append(marks, "hidden")
		}
		if st.Xrayed {
			marks = append(marks, "x-ray")
		}
		if st.Highlighted {
			marks = append(marks, "highlighted")
		}
		if len(marks) > 0 {
			label += "  [" + strings.Join(marks, ", ") + "]"
		}
	}
	return label
}

// refresh redraws everything derived from controller state. It must run on
// the UI goroutine.
func (a *App) refresh() {
	ctrl := a.session.Controller()
	if ctrl == nil {
		return
	}

	a.modeLabel.SetText("Mode: " + ctrl.Mode().String())

	if a.selected == "" {
		a.detailLabel.SetText("-")
	} else if obj, ok := a.session.Scene().Object(a.selected); ok {
		size := obj.Bounds.Size()
		a.detailLabel.SetText(fmt.Sprintf(
			"%s\nTriangles: %d\nSurface Area: %.2f\nSize: %.2f x %.2f x %.2f",
			obj.ID, obj.Triangles, obj.SurfaceArea, size.X, size.Y, size.Z,
		))
	} else {
		a.detailLabel.SetText(fmt.Sprintf("%s\nObjects below: %d", a.selected, len(a.session.Scene().Subtree(a.selected))))
	}

	s := analysis.Summarize(a.session.Scene())
	a.sceneLabel.SetText(fmt.Sprintf(
		"Models: %d\nObjects: %d\nX-rayed: %d\nHighlighted: %d",
		s.Models, s.Objects, s.Xrayed, s.Highlighted,
	))

	view := a.camera.View()
	a.cameraLabel.SetText(fmt.Sprintf("Camera target: %s\nDistance: %.2f", view.Target, view.Distance))
	if gen := a.camera.Generation(); gen != a.cameraGen {
		a.cameraGen = gen
		a.sceneView.Focus(view.Target, view.Distance)
	}

	states := a.session.Scene().States()
	ids := a.session.Scene().RegisteredObjectIDs()
	boxes := make([]viewer.Box, 0, len(ids))
	for _, id := range ids {
		if obj, ok := a.session.Scene().Object(id); ok {
			boxes = append(boxes, viewer.Box{ID: id, Bounds: obj.Bounds, State: states[id]})
		}
	}
	a.sceneView.SetBoxes(boxes)

	a.tree.Refresh()
}
