package service

import (
	"strings"
	"sync"
	"time"
)

// ScannerPool owns one Scanner per gate device, created on first use.
type ScannerPool struct {
	deps ScannerDeps
	cfg  ScannerConfig

	mu       sync.Mutex
	scanners map[string]*Scanner
}

func NewScannerPool(deps ScannerDeps, cfg ScannerConfig) *ScannerPool {
	return &ScannerPool{
		deps:     deps.withDefaults(),
		cfg:      cfg.withDefaults(),
		scanners: make(map[string]*Scanner),
	}
}

func (p *ScannerPool) Get(deviceID string) *Scanner {
	deviceID = strings.TrimSpace(deviceID)

	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.scanners[deviceID]; ok {
		return s
	}
	s := NewScanner(deviceID, p.deps, p.cfg)
	p.scanners[deviceID] = s
	return s
}

// Lookup returns the device's scanner without creating one.
func (p *ScannerPool) Lookup(deviceID string) (*Scanner, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.scanners[strings.TrimSpace(deviceID)]
	return s, ok
}

func (p *ScannerPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.scanners)
}

// Reap closes and forgets scanners that are idle, have no subscribers and
// were last used before cutoff. It returns how many were removed.
func (p *ScannerPool) Reap(cutoff time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for id, s := range p.scanners {
		if !s.closeIfReapable(cutoff) {
			continue
		}
		delete(p.scanners, id)
		n++
	}
	return n
}

// Close shuts down every scanner.
func (p *ScannerPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, s := range p.scanners {
		s.Close()
		delete(p.scanners, id)
	}
}
