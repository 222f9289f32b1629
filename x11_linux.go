//go:build linux

package rebinded

import (
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/jezek/xgb/xproto"
)

// x11WindowProbe answers ActiveWindow queries via EWMH, the same
// _NET_ACTIVE_WINDOW / _NET_WM_NAME / WM_CLASS properties any EWMH
// window manager maintains; NoiseTorch's own X11 integration (outside its
// vendored gio copy) is grounded on the same BurntSushi/xgbutil stack.
type x11WindowProbe struct {
	xu *xgbutil.XUtil
}

func newX11WindowProbe() (*x11WindowProbe, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	return &x11WindowProbe{xu: xu}, nil
}

// ActiveWindow queries the currently focused window's title, class, and
// owning binary. Any individual field that can't be determined is left
// empty rather than surfaced as an error, per spec 4.1/4.7's
// "query failure never propagates" rule.
func (p *x11WindowProbe) ActiveWindow() WindowInfo {
	win, err := ewmh.ActiveWindowGet(p.xu)
	if err != nil || win == 0 {
		return WindowInfo{}
	}

	info := WindowInfo{}
	if title, err := ewmh.WmNameGet(p.xu, win); err == nil {
		info.Title = title
	}
	if class, err := xprotoGetClass(p.xu, win); err == nil {
		info.Class = class
	}
	if pid, err := ewmh.WmPidGet(p.xu, win); err == nil {
		if binary, err := binaryForPID(pid); err == nil {
			info.Binary = binary
		}
	}
	return info
}

// xprotoGetClass reads WM_CLASS directly; xgbutil's own WmClass helper
// returns both the instance and class name, and the second (class) name
// is the one window managers and this daemon's glob conditions key on.
func xprotoGetClass(xu *xgbutil.XUtil, win xproto.Window) (string, error) {
	class, err := ewmhWmClass(xu, win)
	if err != nil {
		return "", err
	}
	return class, nil
}

func ewmhWmClass(xu *xgbutil.XUtil, win xproto.Window) (string, error) {
	reply, err := xproto.GetProperty(xu.Conn(), false, win, xproto.AtomWmClass, xproto.AtomString, 0, 1024).Reply()
	if err != nil {
		return "", err
	}
	parts := strings.Split(string(reply.Value), "\x00")
	if len(parts) >= 2 {
		return parts[1], nil
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "", nil
}

func binaryForPID(pid uint) (string, error) {
	out, err := exec.Command("readlink", "-f", "/proc/"+itoaUint(pid)+"/exe").Output()
	if err != nil {
		return "", err
	}
	path := strings.TrimSpace(string(out))
	idx := strings.LastIndex(path, "/")
	if idx >= 0 {
		path = path[idx+1:]
	}
	return path, nil
}

func itoaUint(v uint) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// scrollGrabber installs passive button grabs for the scroll wheel
// "buttons" (4 = up, 5 = down) over the root window, following the
// mousebind passive-grab pattern xgbutil exposes, and synthesizes a
// Down+Up InputEvent pair for ScrollUpKey/ScrollDownKey through handle
// for each detent. A passive grab freezes further pointer button events
// until XAllowEvents releases it; this grabber replays the click to the
// window beneath on a Passthrough verdict, or drops it on Block.
type scrollGrabber struct {
	xu     *xgbutil.XUtil
	mu     sync.Mutex
	handle EventHandler
}

func newScrollGrabber(xu *xgbutil.XUtil, handle EventHandler) (*scrollGrabber, error) {
	g := &scrollGrabber{xu: xu, handle: handle}
	root := xu.RootWin()

	if err := mousebind.Initialize(xu); err != nil {
		return nil, err
	}

	if err := mousebind.ButtonPressGrab(xu, mousebind.AnyModifier, 4, root, g.handlerFor(ScrollUpKey)); err != nil {
		return nil, err
	}
	if err := mousebind.ButtonPressGrab(xu, mousebind.AnyModifier, 5, root, g.handlerFor(ScrollDownKey)); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *scrollGrabber) handlerFor(key KeyCode) xevent.ButtonPressFun {
	return func(xu *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		now := time.Now()
		resp := g.handle(InputEvent{Key: key, Dir: Down, Time: now})
		g.handle(InputEvent{Key: key, Dir: Up, Time: now})

		mode := byte(xproto.AllowAsyncPointer)
		if resp == ResponsePassthrough {
			mode = xproto.AllowReplayPointer
		}
		xproto.AllowEvents(xu.Conn(), mode, xproto.TimeCurrentTime)
	}
}

// Run pumps the X11 event loop until the connection closes; it must run
// on its own goroutine since xevent.Main blocks.
func (g *scrollGrabber) Run() {
	xevent.Main(g.xu)
}

func (g *scrollGrabber) Stop() {
	xevent.Quit(g.xu)
}
