package utils

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/coachboard/coachboard-service/log"
)

// WaitForTCP blocks until addr accepts connections or timeout is reached.
func WaitForTCP(addr string, timeout time.Duration) error {
	timeoutReached := time.Now().Add(timeout)
	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.String("timeout", timeout.String()))
	var d net.Dialer
	for time.Now().Before(timeoutReached) {
		conn, err := d.DialContext(context.Background(), "tcp", addr)
		if err == nil {
			conn.Close()

			log.Debug("tcp connection successful",
				log.String("addr", addr),
				log.String("duration", time.Since(start).String()))
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("%s could not be reached after %v", addr, timeout)
}

var dbURLRegex = regexp.MustCompile(
	`^postgres(?:ql)?://(?:.*@)?(?P<host>[^:/?]+)(?::(?P<port>\d+))?(?:/.*)?$`)

// ExtractFromDBURL returns host:port of a postgres connection url.
// The port defaults to 5432. An empty string is returned if url does not match.
func ExtractFromDBURL(url string) string {
	match := dbURLRegex.FindStringSubmatch(url)
	if match == nil {
		return ""
	}
	host := match[dbURLRegex.SubexpIndex("host")]
	port := match[dbURLRegex.SubexpIndex("port")]
	if port == "" {
		port = "5432"
	}
	return net.JoinHostPort(host, port)
}

// ExtractFromNatsURL returns host:port of a nats url, the port defaults to 4222.
func ExtractFromNatsURL(url string) string {
	re := regexp.MustCompile(`^(?:nats|tls)://(?:.*@)?(?P<host>[^:/,]+)(?::(?P<port>\d+))?`)
	match := re.FindStringSubmatch(url)
	if match == nil {
		return ""
	}
	port := match[re.SubexpIndex("port")]
	if port == "" {
		port = "4222"
	}
	return net.JoinHostPort(match[re.SubexpIndex("host")], port)
}
