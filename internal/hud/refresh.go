package hud

// Refresh paces overlay redraws and measures the frame rate between them.
type Refresh struct {
	Interval float64 // seconds between redraws
	Visible  bool

	elapsed float64
	frames  int
	fps     float64
	drawn   bool
}

// Toggle flips visibility. Whatever was drawn before is stale once shown
// again, so the next Tick asks for a redraw.
func (r *Refresh) Toggle() {
	r.Visible = !r.Visible
	r.drawn = false
}

// Tick counts one frame of dt seconds and reports whether the panel should be
// redrawn now.
func (r *Refresh) Tick(dt float64) bool {
	r.frames++
	r.elapsed += dt
	due := r.elapsed >= r.Interval
	if due {
		if r.elapsed > 0 {
			r.fps = float64(r.frames) / r.elapsed
		}
		r.frames, r.elapsed = 0, 0
	}
	return r.Visible && (!r.drawn || due)
}

// MarkDrawn records that the panel now shows current contents.
func (r *Refresh) MarkDrawn() { r.drawn = true }

// Ready reports whether there is a current panel to show.
func (r *Refresh) Ready() bool { return r.Visible && r.drawn }

func (r *Refresh) FPS() float64 { return r.fps }
