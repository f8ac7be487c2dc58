package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/coachboard/coachboard-service/log"
	"github.com/coachboard/coachboard-service/pkg/config"
)

// certStore holds the current key pair. Certificates rotated on disk (for
// example by cert-manager) are picked up without a restart.
type certStore struct {
	certFile string
	keyFile  string
	log      *log.Logger

	mu   sync.RWMutex
	cert *tls.Certificate
}

// NewTLSConfigProvider returns nil if no usable key pair is configured.
func NewTLSConfigProvider(ctx context.Context) *tls.Config {
	c := &certStore{
		certFile: config.TLSCertFile,
		keyFile:  config.TLSKeyFile,
		log:      log.GetFromContext(ctx).Named("grpc.certs"),
	}
	if c.certFile == "" || c.keyFile == "" || !c.load() {
		return nil
	}
	ret := &tls.Config{
		GetCertificate: c.getCertificate,
		MinVersion:     tls.VersionTLS13,
	}
	if config.TLSCAFile != "" {
		if pool := c.loadCA(config.TLSCAFile); pool != nil {
			ret.ClientCAs = pool
			ret.ClientAuth = tls.VerifyClientCertIfGiven
		}
	}
	go c.watch(ctx)
	return ret
}

func (c *certStore) getCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cert, nil
}

// load keeps the previous certificate if the new pair cannot be read.
func (c *certStore) load() bool {
	c.log.Info("Loading cert",
		log.String("key", c.keyFile),
		log.String("cert", c.certFile))
	cert, err := tls.LoadX509KeyPair(c.certFile, c.keyFile)
	if err != nil {
		c.log.Error("could not load TLS key pair", log.ErrorField(err))
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cert = &cert
	return true
}

func (c *certStore) loadCA(file string) *x509.CertPool {
	c.log.Info("Loading ca cert", log.String("file", file))
	caCert, err := os.ReadFile(file)
	if err != nil {
		c.log.Error("could not read TLS root CA", log.ErrorField(err))
		return nil
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caCert); !ok {
		c.log.Error("could not append cert to pool")
		return nil
	}
	return pool
}

func (c *certStore) watch(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.log.Error("could not create fsnotify watcher", log.ErrorField(err))
		return
	}
	defer watcher.Close()
	for _, f := range []string{c.certFile, c.keyFile} {
		if err := watcher.Add(f); err != nil {
			c.log.Error("could not watch file", log.String("file", f), log.ErrorField(err))
		}
	}
	for {
		select {
		case <-ctx.Done():
			c.log.Info("context done, stopping cert reload")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			c.log.Debug("change detected",
				log.String("file", event.Name), log.Any("event", event))
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) ||
				event.Has(fsnotify.Create) {
				c.load()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.log.Error("watcher error", log.ErrorField(err))
		}
	}
}
