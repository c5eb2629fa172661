package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeBMC is an in-process Redfish service backed by httptest.NewTLSServer.
// Exported fields may be changed between requests under Lock/Unlock.
type FakeBMC struct {
	Server *httptest.Server

	mu sync.Mutex

	Username string
	Password string

	// AuthStatus overrides the session creation status when non-zero.
	AuthStatus int
	// OmitToken makes session creation succeed without an X-Auth-Token header.
	OmitToken bool

	// PowerStates is returned by successive system reads; the last value repeats.
	PowerStates []string
	// SystemFailures makes the next N system reads answer 503.
	SystemFailures int
	// OmitStatus drops the Status object from the system resource.
	OmitStatus bool

	// ResetStatus overrides the reset action status when non-zero.
	ResetStatus int

	// Sensors maps sensor id to its resource body.
	Sensors map[string]map[string]any
	// SensorOrder fixes the member order of the sensor collection.
	SensorOrder []string

	issued       int
	validTokens  map[string]bool
	powerReads   int
	resets       []string
	deleted      []string
	sessionPosts int
}

// NewFakeBMC starts a fake BMC that accepts root/0penBmc and reports the
// system as On. It is closed when the test ends.
func NewFakeBMC(t *testing.T) *FakeBMC {
	t.Helper()

	bmc := &FakeBMC{
		Username:    "root",
		Password:    "0penBmc",
		PowerStates: []string{"On"},
		Sensors:     map[string]map[string]any{},
		validTokens: map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /redfish/v1/SessionService/Sessions", bmc.createSession)
	mux.HandleFunc("DELETE /redfish/v1/SessionService/Sessions/{id}", bmc.authorized(bmc.deleteSession))
	mux.HandleFunc("GET /redfish/v1/Systems/system", bmc.authorized(bmc.getSystem))
	mux.HandleFunc("POST /redfish/v1/Systems/system/Actions/ComputerSystem.Reset", bmc.authorized(bmc.reset))
	mux.HandleFunc("GET /redfish/v1/Chassis/chassis/Sensors", bmc.authorized(bmc.listSensors))
	mux.HandleFunc("GET /redfish/v1/Chassis/chassis/Sensors/{id}", bmc.authorized(bmc.getSensor))

	bmc.Server = httptest.NewTLSServer(mux)
	t.Cleanup(bmc.Server.Close)
	return bmc
}

// URL returns the base URL of the fake BMC.
func (b *FakeBMC) URL() string {
	return b.Server.URL
}

// Lock guards changes to the exported fields.
func (b *FakeBMC) Lock() { b.mu.Lock() }

// Unlock releases Lock.
func (b *FakeBMC) Unlock() { b.mu.Unlock() }

// AddSensor registers a sensor with a Reading value.
func (b *FakeBMC) AddSensor(id, name string, reading float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Sensors[id] = map[string]any{
		"Id":           id,
		"Name":         name,
		"Reading":      reading,
		"ReadingUnits": "Cel",
	}
	b.SensorOrder = append(b.SensorOrder, id)
}

// RevokeTokens expires every issued token, as a BMC reboot would.
func (b *FakeBMC) RevokeTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validTokens = map[string]bool{}
}

// SessionPosts returns how many session creations were attempted.
func (b *FakeBMC) SessionPosts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessionPosts
}

// ActiveSessions returns the number of tokens still accepted.
func (b *FakeBMC) ActiveSessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.validTokens)
}

// PowerReads returns the number of system reads served.
func (b *FakeBMC) PowerReads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.powerReads
}

// Resets returns the reset types received, in order.
func (b *FakeBMC) Resets() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.resets...)
}

// DeletedSessions returns the ids of sessions removed through DELETE.
func (b *FakeBMC) DeletedSessions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

func (b *FakeBMC) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		ok := b.validTokens[r.Header.Get("X-Auth-Token")]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "session not valid"})
			return
		}
		next(w, r)
	}
}

func (b *FakeBMC) createSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserName string `json:"UserName"`
		Password string `json:"Password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessionPosts++

	if b.AuthStatus != 0 {
		writeJSON(w, b.AuthStatus, map[string]any{"error": "forced status"})
		return
	}
	if body.UserName != b.Username || body.Password != b.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
		return
	}

	b.issued++
	id := fmt.Sprintf("%d", b.issued)
	token := "token-" + id
	b.validTokens[token] = true

	w.Header().Set("Location", "/redfish/v1/SessionService/Sessions/"+id)
	if !b.OmitToken {
		w.Header().Set("X-Auth-Token", token)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"Id": id, "UserName": body.UserName})
}

func (b *FakeBMC) deleteSession(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := r.PathValue("id")
	delete(b.validTokens, "token-"+id)
	b.deleted = append(b.deleted, id)
	w.WriteHeader(http.StatusNoContent)
}

func (b *FakeBMC) getSystem(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.SystemFailures > 0 {
		b.SystemFailures--
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "busy"})
		return
	}

	state := ""
	if len(b.PowerStates) > 0 {
		idx := b.powerReads
		if idx >= len(b.PowerStates) {
			idx = len(b.PowerStates) - 1
		}
		state = b.PowerStates[idx]
	}
	b.powerReads++

	system := map[string]any{
		"@odata.id":  "/redfish/v1/Systems/system",
		"Id":         "system",
		"Name":       "system",
		"PowerState": state,
	}
	if !b.OmitStatus {
		system["Status"] = map[string]any{"State": "Enabled", "Health": "OK"}
	}
	writeJSON(w, http.StatusOK, system)
}

func (b *FakeBMC) reset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ResetType string `json:"ResetType"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.resets = append(b.resets, body.ResetType)

	if b.ResetStatus != 0 {
		writeJSON(w, b.ResetStatus, map[string]any{"error": "forced status"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *FakeBMC) listSensors(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	members := make([]map[string]string, 0, len(b.SensorOrder))
	for _, id := range b.SensorOrder {
		members = append(members, map[string]string{
			"@odata.id": "/redfish/v1/Chassis/chassis/Sensors/" + id,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"Members":             members,
		"Members@odata.count": len(members),
	})
}

func (b *FakeBMC) getSensor(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sensor, ok := b.Sensors[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "no such sensor"})
		return
	}
	writeJSON(w, http.StatusOK, sensor)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
