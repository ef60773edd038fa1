// Package server - Inspektions-Server fuer kompilierte Embedding-Plaene
// Beinhaltet: Server-Struct, Router-Registrierung, Loopback-Pruefung
package server

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ollama/embedforge/api"
	"github.com/ollama/embedforge/envconfig"
	"github.com/ollama/embedforge/trainer"
	"github.com/ollama/embedforge/version"
)

// Server liefert einen kompilierten Plan ueber HTTP aus
type Server struct {
	addr net.Addr
	plan trainer.Plan
}

// New erstellt einen Server fuer plan. addr darf nil sein (keine Host-Pruefung).
func New(addr net.Addr, plan trainer.Plan) *Server {
	return &Server{addr: addr, plan: plan}
}

// localHost meldet ob ein Host-Header diese Maschine ueber Loopback anspricht
func localHost(hostport string) bool {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		host = hostport
	}
	host = strings.ToLower(strings.Trim(host, "[]"))

	if ip, err := netip.ParseAddr(host); err == nil {
		return ip.IsLoopback() || ip.IsUnspecified()
	}
	return host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost")
}

// loopbackOnly weist fremde Host-Header ab solange der Server nur auf
// Loopback lauscht
func loopbackOnly(addr net.Addr) gin.HandlerFunc {
	if addr == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if ap, err := netip.ParseAddrPort(addr.String()); err == nil && !ap.Addr().IsLoopback() {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if !localHost(c.Request.Host) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("host %q is not allowed", c.Request.Host)})
			return
		}
		c.Next()
	}
}

// GenerateRoutes erstellt und konfiguriert den HTTP-Router
func (s *Server) GenerateRoutes() http.Handler {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowHeaders = []string{
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
	}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	corsConfig.AllowOrigins = envconfig.AllowedOrigins()

	r := gin.Default()
	r.HandleMethodNotAllowed = true
	r.Use(
		cors.New(corsConfig),
		loopbackOnly(s.addr),
	)

	// General
	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "embedforge is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "embedforge is running") })
	r.HEAD("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, api.VersionResponse{Version: version.Version}) })
	r.GET("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, api.VersionResponse{Version: version.Version}) })

	// Plan
	r.GET("/api/plan", s.PlanHandler)
	r.GET("/api/tables", s.TablesHandler)
	r.GET("/api/tables/:name", s.TableHandler)
	r.GET("/api/devices", s.DevicesHandler)
	r.GET("/api/registry/:device", s.RegistryHandler)
	r.GET("/api/memory", s.MemoryHandler)

	return r
}
