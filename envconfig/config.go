// config.go - Haupt-Konfigurationsfunktionen fuer embedforge
//
// Dieses Modul enthaelt:
// - Host: Gibt Scheme und Host des Inspektions-Servers zurueck (EMBEDFORGE_HOST)
// - AllowedOrigins: Gibt erlaubte CORS-Origins zurueck (EMBEDFORGE_ORIGINS)
// - VisibleDevices: Gibt die sichtbaren lokalen Geraete zurueck (EMBEDFORGE_VISIBLE_DEVICES)
// - LogLevel: Gibt Log-Level zurueck (EMBEDFORGE_DEBUG)
//
// Weitere Konfigurationen sind ausgelagert:
// - config_features.go: Build-Flags und Typauswahl
// - config_utils.go: Utility-Funktionen und AsMap/Values
package envconfig

import (
	"cmp"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Host gibt die Adresse des Inspektions-Servers zurueck
// Konfigurierbar via EMBEDFORGE_HOST ([scheme://]host[:port][/path])
// Default: http://127.0.0.1:11500, https ohne Port nutzt 443
func Host() *url.URL {
	s := Var("EMBEDFORGE_HOST")
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		slog.Warn("invalid EMBEDFORGE_HOST, using default", "value", s, "error", err)
		u = &url.URL{Scheme: "http"}
	}

	host := cmp.Or(u.Hostname(), "127.0.0.1")
	defaultPort := "11500"
	if u.Scheme == "https" {
		defaultPort = "443"
	}

	port := u.Port()
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		if port != "" {
			slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		}
		port = defaultPort
	}

	return &url.URL{
		Scheme: u.Scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   u.Path,
	}
}

// AllowedOrigins gibt die erlaubten CORS-Origins zurueck
// Konfigurierbar via EMBEDFORGE_ORIGINS (komma-separiert)
// http-Origins auf localhost und 127.0.0.1 sind immer erlaubt
func AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(Var("EMBEDFORGE_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	for _, host := range []string{"localhost", "127.0.0.1"} {
		origins = append(origins, "http://"+host, "http://"+host+":*")
	}
	return origins
}

// VisibleDevices gibt die IDs der sichtbaren Geraete zurueck
// Konfigurierbar via EMBEDFORGE_VISIBLE_DEVICES (komma-separiert)
// Leer = alle Geraete laut NumDevices
func VisibleDevices() []string {
	raw := strings.TrimSpace(Var("EMBEDFORGE_VISIBLE_DEVICES"))
	if raw == "" {
		return nil
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via EMBEDFORGE_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("EMBEDFORGE_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
