package render

import "gocv.io/x/gocv"

const keyEsc = 27

// Window is a preview window that reports quit keys.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a named window.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Show displays img and polls the keyboard once. It reports true when the user
// pressed q or Esc, or closed the window.
func (w *Window) Show(img gocv.Mat) (quit bool) {
	w.win.IMShow(img)
	key := w.win.WaitKey(1)
	if IsQuitKey(key) {
		return true
	}
	return !w.win.IsOpen()
}

// IsQuitKey reports whether key is q, Q or Esc.
func IsQuitKey(key int) bool {
	return key == 'q' || key == 'Q' || key == keyEsc
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
