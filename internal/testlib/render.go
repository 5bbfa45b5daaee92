package testlib

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"

	"github.com/PedroGalveias/farms-rotator/model"
)

// FakeRender is an in-process stand-in for the provider API and the hosted
// service's public endpoints. It records every mutating call so tests can
// assert on exact call counts.
type FakeRender struct {
	mu sync.Mutex

	databases       map[string]*model.Postgres
	connectionInfos map[string]*model.ConnectionInfo
	polls           map[string]int

	// ReadyAfterPolls is how many status polls a freshly created database
	// stays in creating before turning available.
	ReadyAfterPolls int

	CreateCalls      int
	DeleteCalls      int
	RestartCalls     int
	EnvVarUpdates    []model.EnvVar
	HealthCheckCalls int
	FarmsCalls       int

	nextID int
	server *httptest.Server
}

// NewFakeRender starts a fake provider server. Callers must Close it.
func NewFakeRender() *FakeRender {
	f := &FakeRender{
		databases:       map[string]*model.Postgres{},
		connectionInfos: map[string]*model.ConnectionInfo{},
		polls:           map[string]int{},
	}

	router := mux.NewRouter()

	postgresRouter := router.PathPrefix("/postgres").Subrouter()
	postgresRouter.HandleFunc("", f.handleListPostgres).Methods("GET")
	postgresRouter.HandleFunc("", f.handleCreatePostgres).Methods("POST")
	postgresRouter.HandleFunc("/{postgres}", f.handleGetPostgres).Methods("GET")
	postgresRouter.HandleFunc("/{postgres}", f.handleDeletePostgres).Methods("DELETE")
	postgresRouter.HandleFunc("/{postgres}/connection-info", f.handleGetConnectionInfo).Methods("GET")

	servicesRouter := router.PathPrefix("/services/{service}").Subrouter()
	servicesRouter.HandleFunc("/env-vars/{key}", f.handleUpdateEnvVar).Methods("PUT")
	servicesRouter.HandleFunc("/restart", f.handleRestart).Methods("POST")

	router.HandleFunc("/health_check", f.handleHealthCheck).Methods("GET")
	router.HandleFunc("/farms", f.handleFarms).Methods("GET")

	f.server = httptest.NewServer(router)
	return f
}

// URL returns the fake server's base address.
func (f *FakeRender) URL() string {
	return f.server.URL
}

// Close shuts the fake server down.
func (f *FakeRender) Close() {
	f.server.Close()
}

// AddPostgres seeds an existing database with its connection info.
func (f *FakeRender) AddPostgres(postgres *model.Postgres, connectionInfo *model.ConnectionInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.databases[postgres.ID] = postgres
	f.connectionInfos[postgres.ID] = connectionInfo
}

func (f *FakeRender) handleListPostgres(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := []*model.PostgresListEntry{}
	for _, postgres := range f.databases {
		entries = append(entries, &model.PostgresListEntry{Postgres: postgres})
	}

	outputJSON(w, http.StatusOK, entries)
}

func (f *FakeRender) handleCreatePostgres(w http.ResponseWriter, r *http.Request) {
	createRequest, err := model.NewCreatePostgresRequestFromReader(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.CreateCalls++
	f.nextID++

	status := model.PostgresStatusCreating
	if f.ReadyAfterPolls == 0 {
		status = model.PostgresStatusAvailable
	}

	postgres := &model.Postgres{
		ID:            fmt.Sprintf("dpg-%06d", f.nextID),
		Name:          createRequest.Name,
		DatabaseName:  createRequest.DatabaseName,
		DatabaseUser:  createRequest.DatabaseUser,
		Plan:          createRequest.Plan,
		Region:        createRequest.Region,
		Version:       createRequest.Version,
		Status:        status,
		EnvironmentID: createRequest.EnvironmentID,
		OwnerID:       createRequest.OwnerID,
	}

	f.databases[postgres.ID] = postgres
	f.connectionInfos[postgres.ID] = &model.ConnectionInfo{
		Password:                 "generated-password",
		InternalConnectionString: fmt.Sprintf("postgres://%s@%s/%s", postgres.DatabaseUser, postgres.ID, postgres.DatabaseName),
		ExternalConnectionString: fmt.Sprintf("postgres://%s@%s.example.com/%s", postgres.DatabaseUser, postgres.ID, postgres.DatabaseName),
		PSQLCommand:              fmt.Sprintf("psql postgres://%s@%s.example.com/%s", postgres.DatabaseUser, postgres.ID, postgres.DatabaseName),
	}

	outputJSON(w, http.StatusCreated, postgres)
}

func (f *FakeRender) handleGetPostgres(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["postgres"]

	f.mu.Lock()
	defer f.mu.Unlock()

	postgres, found := f.databases[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if postgres.Status == model.PostgresStatusCreating {
		f.polls[id]++
		if f.polls[id] >= f.ReadyAfterPolls {
			postgres.Status = model.PostgresStatusAvailable
		}
	}

	outputJSON(w, http.StatusOK, postgres)
}

func (f *FakeRender) handleDeletePostgres(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["postgres"]

	f.mu.Lock()
	defer f.mu.Unlock()

	_, found := f.databases[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	f.DeleteCalls++
	delete(f.databases, id)
	delete(f.connectionInfos, id)

	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeRender) handleGetConnectionInfo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["postgres"]

	f.mu.Lock()
	defer f.mu.Unlock()

	connectionInfo, found := f.connectionInfos[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	outputJSON(w, http.StatusOK, connectionInfo)
}

func (f *FakeRender) handleUpdateEnvVar(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	updateRequest, err := model.NewUpdateEnvVarRequestFromReader(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.EnvVarUpdates = append(f.EnvVarUpdates, model.EnvVar{Key: key, Value: updateRequest.Value})

	outputJSON(w, http.StatusOK, &model.EnvVar{Key: key, Value: updateRequest.Value})
}

func (f *FakeRender) handleRestart(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.RestartCalls++

	w.WriteHeader(http.StatusOK)
}

func (f *FakeRender) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.HealthCheckCalls++

	w.WriteHeader(http.StatusOK)
}

func (f *FakeRender) handleFarms(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.FarmsCalls++

	w.WriteHeader(http.StatusOK)
}

func outputJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
