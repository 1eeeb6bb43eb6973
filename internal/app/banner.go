package app

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/skip2/go-qrcode"

	"github.com/shinji-kodama/devserve/internal/model"
)

// bannerInfo is everything the startup banner shows.
type bannerInfo struct {
	URL       string
	Domain    string
	Port      int
	Dir       string
	Network   string
	Private   bool
	PrivateOK bool
	Browser   model.Browser
	ShowQR    bool
	Advertise bool
}

func (r *runner) printBanner(b bannerInfo) {
	writeBanner(r.deps.Stdout, b)
}

// writeBanner prints the URLs the server is reachable at. The custom-domain
// line appears only when the domain was configured successfully.
func writeBanner(w io.Writer, b bannerInfo) {
	dir := b.Dir
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Serving %s\n", dir)
	fmt.Fprintln(w, "")
	if b.Domain != model.LocalhostName {
		fmt.Fprintf(w, "  Custom domain:  %s\n", b.URL)
	}
	fmt.Fprintf(w, "  Localhost:      http://%s:%d\n", model.LocalhostName, b.Port)
	if b.Network != "" {
		fmt.Fprintf(w, "  Network:        %s\n", b.Network)
	}
	if b.Advertise {
		fmt.Fprintln(w, "  mDNS:           advertised as _http._tcp")
	}
	switch {
	case b.Private && b.PrivateOK:
		fmt.Fprintf(w, "  Opening %s in a private window\n", b.Browser)
	case b.Private:
		fmt.Fprintf(w, "  Private browsing is not available for %s; opening a regular window\n", b.Browser)
	}

	if b.ShowQR {
		payload := b.Network
		if payload == "" {
			payload = b.URL
		}
		writeQRCode(w, payload)
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Press Ctrl+C to stop")
}

// writeQRCode renders payload as a compact QR code made of half-block
// characters. Generation failures are reported inline and the banner
// continues.
func writeQRCode(w io.Writer, payload string) {
	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		fmt.Fprintf(w, "  (QR code unavailable: %v)\n", err)
		return
	}
	fmt.Fprintln(w, "")
	fmt.Fprint(w, qr.ToSmallString(false))
	fmt.Fprintf(w, "  Scan to open %s\n", payload)
}
