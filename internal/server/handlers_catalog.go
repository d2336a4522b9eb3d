package server

import (
	"net/http"
	"strconv"

	"fixitapp/internal/domain"
)

// handleHealth reports service liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.config.Business.Name,
	})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Catalog().Devices())
}

func (s *Server) handleListRepairs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Catalog().RepairTypes())
}

func (s *Server) handleListTiers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Catalog().Tiers())
}

// tierOption is one offered tier for a (device, repair) pair with its
// resolved price and stock status
type tierOption struct {
	Tier  domain.PartsTier   `json:"tier"`
	Price float64            `json:"price"`
	Stock domain.StockStatus `json:"stock"`
}

// handleTierOptions lists the tiers offered for a device and repair,
// restricted to the pair's availability subset and priced entries.
func (s *Server) handleTierOptions(w http.ResponseWriter, r *http.Request) {
	cat := s.engine.Catalog()

	deviceID, err := strconv.ParseInt(r.URL.Query().Get("deviceId"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid deviceId"})
		return
	}
	device, ok := cat.DeviceByID(deviceID)
	if !ok {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "device not found"})
		return
	}

	repairID := r.URL.Query().Get("repair")
	if _, ok := cat.RepairByID(repairID); !ok {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "repair type not found"})
		return
	}

	options := make([]tierOption, 0)
	for _, tier := range cat.TiersFor(device.Name, repairID) {
		price, err := cat.PriceFor(device.Name, repairID, tier.ID)
		if err != nil {
			// Unpriced pairs are not offered as options
			continue
		}
		options = append(options, tierOption{
			Tier:  tier,
			Price: price,
			Stock: s.engine.StockFor(r.Context(), repairID, tier.ID),
		})
	}
	respondJSON(w, http.StatusOK, options)
}
