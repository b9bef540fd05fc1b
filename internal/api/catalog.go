package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goodtune/pesonet/internal/shop"
)

type stationRequest struct {
	Name string  `json:"name"`
	Rate numeric `json:"rate_per_hour"`
}

type productRequest struct {
	Name  string  `json:"name"`
	Price numeric `json:"price"`
	Stock numeric `json:"stock"`
}

// listStations returns all stations, or only free ones with ?free=true.
func (s *Server) listStations(w http.ResponseWriter, r *http.Request) {
	stations := s.shop.Stations()
	if r.URL.Query().Get("free") == "true" {
		stations = s.shop.FreeStations()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stations": stations,
		"count":    len(stations),
	})
}

func (s *Server) createStation(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rate := string(req.Rate)
	if rate == "" {
		rate = s.config.DefaultRate
	}

	station, err := s.shop.AddStation(r.Context(), req.Name, rate)
	if err != nil {
		writeShopError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, station)
}

func (s *Server) getStation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid station id")
		return
	}

	station, err := s.shop.Station(id)
	if err != nil {
		writeShopError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, station)
}

func (s *Server) updateStation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid station id")
		return
	}

	var req stationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	station, err := s.shop.EditStation(r.Context(), id, shop.StationEdit{Name: req.Name, Rate: string(req.Rate)})
	if err != nil {
		writeShopError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, station)
}

func (s *Server) deleteStation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid station id")
		return
	}

	if err := s.shop.RemoveStation(r.Context(), id); err != nil {
		writeShopError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products := s.shop.Products()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := s.shop.AddProduct(r.Context(), req.Name, string(req.Price), string(req.Stock))
	if err != nil {
		writeShopError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	product, err := s.shop.Product(id)
	if err != nil {
		writeShopError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := s.shop.EditProduct(r.Context(), id, shop.ProductEdit{
		Name:  req.Name,
		Price: string(req.Price),
		Stock: string(req.Stock),
	})
	if err != nil {
		writeShopError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := s.shop.RemoveProduct(r.Context(), id); err != nil {
		writeShopError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
