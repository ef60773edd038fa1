// handlers.go - Handler fuer Plan, Tabellen, Geraete, Registries und Speicher
package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ollama/embedforge/api"
	"github.com/ollama/embedforge/format"
)

// PlanHandler gibt den kompletten Plan zurueck
func (s *Server) PlanHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.plan)
}

// TablesHandler listet alle Tabellen in Deklarations-Reihenfolge
func (s *Server) TablesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.TablesResponse{ID: s.plan.ID, Tables: s.plan.Tables})
}

// TableHandler gibt eine einzelne Tabelle zurueck
func (s *Server) TableHandler(c *gin.Context) {
	t, ok := s.plan.Table(c.Param("name"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("embedding %q not found", c.Param("name"))})
		return
	}

	c.JSON(http.StatusOK, t)
}

// DevicesHandler listet die lokalen Geraete
func (s *Server) DevicesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.DevicesResponse{Devices: s.plan.Devices})
}

// RegistryHandler gibt die Eintraege eines Geraets zurueck (?phase=train|eval)
func (s *Server) RegistryHandler(c *gin.Context) {
	phase := c.DefaultQuery("phase", "train")
	entries, ok := s.plan.Phase(phase)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown phase %q", phase)})
		return
	}

	i, err := strconv.Atoi(c.Param("device"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid device index %q", c.Param("device"))})
		return
	}
	if i < 0 || i >= len(entries) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("device %d not found", i)})
		return
	}

	c.JSON(http.StatusOK, api.RegistryResponse{Device: s.plan.Devices[i], Phase: phase, Entries: entries[i]})
}

// MemoryHandler gibt die Speicher-Bilanz pro Geraet zurueck
func (s *Server) MemoryHandler(c *gin.Context) {
	total := s.plan.Memory.Total()
	c.JSON(http.StatusOK, api.MemoryResponse{
		Devices: s.plan.Memory.Devices,
		Total:   total,
		Human:   format.HumanBytes2(total),
	})
}
