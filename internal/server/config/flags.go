package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/nulldatamap/xthevent/internal/flagx"
)

var (
	ErrAddressTwice    = errors.New("address has been specified twice")
	ErrTooManyAddress  = errors.New("only one address is allowed")
	errNegativeSetting = errors.New("durations must not be negative")
)

var (
	valueFlags = []string{"-a", "-address", "--address", "-p", "-port", "--port", "-g", "-d", "-dbaddr", "--dbaddr", "-t", "-r", "-o", "-l", "-c", "-config", "--config"}
	boolFlags  = []string{"-initdb", "--initdb", "-h", "-help", "--help"}
)

type flagValues struct {
	host            string
	port            string
	sessionTTL      *int
	registrationTTL *int
	storeTimeout    *int
}

func newFlagSet(config *Config) (*flag.FlagSet, *flagValues) {
	fs := flag.NewFlagSet("xthevent", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	v := &flagValues{}

	fs.StringVar(&v.host, "a", "", "host of the HTTP server (host:port is accepted too)")
	fs.StringVar(&v.host, "address", "", "host of the HTTP server")
	fs.StringVar(&v.port, "p", "", "port of the HTTP server, "+defaultHTTPPort+" unless configured")
	fs.StringVar(&v.port, "port", "", "port of the HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run the gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DatabaseDSN, "dbaddr", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&config.InitDB, "initdb", config.InitDB, "apply database migrations at start-up")

	v.sessionTTL = fs.Int("t", int(config.SessionTTL.Minutes()), "session_ttl (in minutes)")
	v.registrationTTL = fs.Int("r", int(config.RegistrationTTL.Minutes()), "registration_ttl (in minutes)")
	v.storeTimeout = fs.Int("o", int(config.StoreTimeout.Seconds()), "store_timeout (in seconds)")

	// Consumed by parseJson; declared so the shared args parse cleanly.
	var ignored string
	fs.StringVar(&ignored, "c", "", "path to JSON config file")
	fs.StringVar(&ignored, "config", "", "path to JSON config file")

	return fs, v
}

// Usage writes the command-line help to w.
func Usage(w io.Writer, program string) {
	cfg := &Config{}
	cfg.LoadDefaults()
	fs, _ := newFlagSet(cfg)
	fs.SetOutput(w)
	fmt.Fprintf(w, "Usage:\n    %s [addr:port] [options]\n", program)
	fs.PrintDefaults()
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a, -address str  HTTP host, or host:port
//	-p, -port string  HTTP port
//	-g string         gRPC health bind address
//	-d, -dbaddr str   PostgreSQL DSN
//	-t int            session TTL, minutes
//	-r int            registration token TTL, minutes
//	-o int            store operation timeout, seconds
//	-l string         log level
//	-initdb           apply migrations at start-up
//
// -a and -p are joined into the HTTP address; whichever is missing is taken
// from the configured address, falling back to port 491. A single positional
// "addr:port" argument sets the HTTP address as well; it cannot be combined
// with -a or -p. Unknown flags are an error and -h returns flag.ErrHelp.
func parseFlags(config *Config, osArgs []string) error {
	args, positional := flagx.SplitArgs(osArgs, valueFlags, boolFlags)

	fs, v := newFlagSet(config)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *v.sessionTTL < 0 || *v.registrationTTL < 0 || *v.storeTimeout < 0 {
		return errNegativeSetting
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Only explicit flags override, so sub-minute values from JSON survive.
	if set["t"] {
		config.SessionTTL = time.Duration(*v.sessionTTL) * time.Minute
	}
	if set["r"] {
		config.RegistrationTTL = time.Duration(*v.registrationTTL) * time.Minute
	}
	if set["o"] {
		config.StoreTimeout = time.Duration(*v.storeTimeout) * time.Second
	}
	addrSet := set["a"] || set["address"] || set["p"] || set["port"]

	switch len(positional) {
	case 0:
		if addrSet {
			config.EndpointAddrHTTP = joinAddress(config.EndpointAddrHTTP, v.host, v.port)
		}
	case 1:
		if addrSet {
			return ErrAddressTwice
		}
		config.EndpointAddrHTTP = positional[0]
	default:
		return ErrTooManyAddress
	}

	return nil
}

// joinAddress overrides the host and port of current with the ones given on
// the command line. host may carry its own port, which port still replaces.
func joinAddress(current, host, port string) string {
	curHost, curPort, err := net.SplitHostPort(current)
	if err != nil {
		curHost, curPort = current, ""
	}
	if curPort == "" {
		curPort = defaultHTTPPort
	}

	if host != "" {
		if h, p, err := net.SplitHostPort(host); err == nil {
			curHost, curPort = h, p
		} else {
			curHost = host
		}
	}
	if port != "" {
		curPort = port
	}

	return net.JoinHostPort(curHost, curPort)
}
