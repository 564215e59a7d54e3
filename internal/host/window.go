package host

// TitleSink receives window title changes on the native side.
type TitleSink interface {
	SetScreenTitle(title string)
}

// Window is the render target seen by scripts.
type Window struct {
	sink  TitleSink
	title string
}

func NewWindow(sink TitleSink) *Window {
	return &Window{sink: sink}
}

// SetTitle stores the title and forwards it to the host immediately.
func (w *Window) SetTitle(title string) {
	w.title = title
	if w.sink != nil {
		w.sink.SetScreenTitle(title)
	}
}

func (w *Window) Title() string {
	return w.title
}
