package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"

	"github.com/jackpal/gateway"
	"github.com/mdp/qrterminal/v3"
	"golang.org/x/crypto/bcrypt"

	"shelf/internal/config"
	"shelf/internal/httpd"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if len(os.Args) > 1 && os.Args[1] == "passwd" {
		passwdCmd(os.Args[2:])
		return
	}

	var (
		addr     = flag.String("addr", "0.0.0.0:8080", "listen address")
		root     = flag.String("root", "", "share root (required)")
		user     = flag.String("user", "", "basic auth username")
		pass     = flag.String("pass", "", "basic auth password (plaintext)")
		passhash = flag.String("passhash", "", "basic auth password (bcrypt hash, overrides -pass)")
		realm    = flag.String("realm", "shelf", "basic auth realm")
		maxConns = flag.Int("max-conns", 0, "max concurrent connections (0 = unlimited)")
		qr       = flag.Bool("qr", false, "print a QR code of the server URL")
	)
	flag.Parse()

	if *root == "" {
		log.Fatalf("missing -root")
	}
	absRoot, err := filepath.Abs(*root)
	if err != nil {
		log.Fatalf("abs root: %v", err)
	}
	if st, err := os.Stat(absRoot); err != nil || !st.IsDir() {
		log.Fatalf("root %s is not a directory", absRoot)
	}

	cfg := config.Config{
		Addr:           *addr,
		Root:           absRoot,
		Username:       *user,
		Password:       *pass,
		PasswordBcrypt: *passhash,
		Realm:          *realm,
		MaxConns:       *maxConns,
	}

	srv, err := httpd.New(cfg)
	if err != nil {
		log.Fatalf("server init: %v", err)
	}

	log.Printf("shelf listening on http://%s (root=%s)", cfg.Addr, cfg.Root)
	if cfg.AuthEnabled() {
		log.Printf("basic auth enabled for user %q", cfg.Username)
	} else {
		log.Printf("warning: no auth configured; anyone who can reach %s can read and write %s", cfg.Addr, cfg.Root)
	}
	if absRoot == "/" {
		log.Printf("warning: serving the whole filesystem; consider a narrower -root")
	}
	if *qr {
		go printQR(cfg.Addr)
	}

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

func passwdCmd(args []string) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	var (
		password = fs.String("p", "", "password (required)")
		cost     = fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	)
	_ = fs.Parse(args)
	if *password == "" {
		fmt.Fprintln(os.Stderr, "usage: shelf passwd -p <password>")
		os.Exit(2)
	}
	if *cost < bcrypt.MinCost || *cost > bcrypt.MaxCost {
		fmt.Fprintf(os.Stderr, "invalid cost %d (min=%d max=%d)\n", *cost, bcrypt.MinCost, bcrypt.MaxCost)
		os.Exit(2)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(*password), *cost)
	if err != nil {
		log.Fatalf("bcrypt: %v", err)
	}
	fmt.Println(string(h))
}

// printQR renders a scan-to-open QR code for the LAN address of this
// machine, substituting the wildcard host in addr when needed.
func printQR(addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		ip, err := lanIP()
		if err != nil {
			log.Printf("qr: cannot determine LAN address: %v", err)
			return
		}
		host = ip.String()
	}
	url := "http://" + net.JoinHostPort(host, port)
	fmt.Printf("\nScan to open %s\n", url)
	qrterminal.GenerateWithConfig(url, qrterminal.Config{
		Level:      qrterminal.M,
		Writer:     os.Stdout,
		HalfBlocks: true,
		QuietZone:  1,
	})
}

// lanIP picks the local interface address that shares a subnet with the
// default gateway.
func lanIP() (net.IP, error) {
	gw, err := gateway.DiscoverGateway()
	if err != nil {
		return nil, err
	}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.To4() == nil {
			continue
		}
		if ipnet.Contains(gw) {
			return ipnet.IP, nil
		}
	}
	return nil, fmt.Errorf("no interface on the gateway subnet")
}
