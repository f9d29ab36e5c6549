package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// The simulator provisions a demo account over the HTTP API, seeds vehicles,
// maintenance records, and reminders, then streams odometer readings over
// MQTT so the ingest keeps the odometers moving.

var authToken string

type vehicleSeed struct {
	VehicleType       string `json:"vehicle_type"`
	Make              string `json:"make"`
	Model             string `json:"model"`
	Color             string `json:"color"`
	Year              int    `json:"year"`
	Mileage           int    `json:"mileage"`
	VIN               string `json:"vin"`
	LicensePlate      string `json:"license_plate"`
	RegistrationState string `json:"registration_state"`
	FuelType          string `json:"fuel_type"`
	TransmissionType  string `json:"transmission_type"`
	IsActive          bool   `json:"is_active"`
	Nickname          string `json:"nickname"`
}

type odometerReading struct {
	VehicleID  string    `json:"vehicle_id"`
	Mileage    int       `json:"mileage"`
	RecordedAt time.Time `json:"recorded_at"`
}

type vehicleState struct {
	ID      string
	Mileage int
}

func authorizedPost(url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func provisionAccount(apiURL string) error {
	suffix := strconv.Itoa(rand.Intn(100000))
	username := "simulator" + suffix
	password := "simulator-password"

	register := map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	}
	data, _ := json.Marshal(register)
	resp, err := authorizedPost(apiURL+"/users/register", data)
	if err != nil {
		return fmt.Errorf("register failed: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("register failed with status: %d", resp.StatusCode)
	}

	login := map[string]string{"username": username, "password": password}
	data, _ = json.Marshal(login)
	resp, err = authorizedPost(apiURL+"/users/login", data)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with status: %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	token, ok := result["access_token"].(string)
	if !ok {
		return fmt.Errorf("invalid access token in response")
	}
	authToken = token
	log.WithField("username", username).Info("Provisioned simulator account")
	return nil
}

func createVehicle(apiURL string, index int) (*vehicleState, error) {
	makes := []string{"Subaru", "Toyota", "Honda", "Ford", "BMW"}
	models := []string{"Outback", "Camry", "Civic", "F-150", "X5"}
	states := []string{"Ohio", "Alabama", "Oregon", "Texas", "Vermont"}

	pick := rand.Intn(len(makes))
	mileage := 20000 + rand.Intn(120000)

	vehicle := vehicleSeed{
		VehicleType:       "Sedan",
		Make:              makes[pick],
		Model:             models[pick],
		Color:             "White",
		Year:              2015 + rand.Intn(10),
		Mileage:           mileage,
		VIN:               fmt.Sprintf("SIMVIN%06d%06d", index, rand.Intn(1000000)),
		LicensePlate:      fmt.Sprintf("SIM%04d", rand.Intn(10000)),
		RegistrationState: states[rand.Intn(len(states))],
		FuelType:          "Gasoline",
		TransmissionType:  "Automatic",
		IsActive:          true,
		Nickname:          fmt.Sprintf("Sim Rig %d", index),
	}

	data, err := json.Marshal(vehicle)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vehicle: %w", err)
	}

	resp, err := authorizedPost(apiURL+"/vehicles", data)
	if err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("vehicle creation failed with status: %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	createdID, ok := result["id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid vehicle ID in response")
	}

	log.WithFields(log.Fields{
		"vehicle_id": createdID,
		"make":       vehicle.Make,
		"model":      vehicle.Model,
		"mileage":    mileage,
	}).Info("Created vehicle")

	return &vehicleState{ID: createdID, Mileage: mileage}, nil
}

func seedMaintenance(apiURL string, v *vehicleState) {
	cost := 50.0 + rand.Float64()*400
	servicedAt := time.Now().AddDate(0, -rand.Intn(10), 0)
	record := map[string]interface{}{
		"vehicle_id":           v.ID,
		"maintenance_provider": "Quick-I-Lube",
		"maintenance_type":     "Oil Change",
		"description":          "Emptied and replaced oil with synthetic grade oil",
		"mileage":              v.Mileage,
		"cost":                 cost,
		"serviced_at":          servicedAt,
	}
	data, _ := json.Marshal(record)
	resp, err := authorizedPost(apiURL+"/maintenance", data)
	if err != nil {
		log.WithError(err).Error("Failed to seed maintenance record")
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.WithField("status", resp.StatusCode).Error("Maintenance record seed rejected")
	}
}

func seedReminder(apiURL string, v *vehicleState) {
	lastServiced := v.Mileage - rand.Intn(2500)
	reminder := map[string]interface{}{
		"vehicle_id":            v.ID,
		"maintenance_type":      "Oil Change",
		"details":               "Oil change due every 3k miles or 6 months",
		"interval_miles":        3000,
		"interval_months":       6,
		"last_serviced_mileage": lastServiced,
		"last_serviced_date":    time.Now().AddDate(0, -rand.Intn(5), 0),
	}
	data, _ := json.Marshal(reminder)
	resp, err := authorizedPost(apiURL+"/reminders", data)
	if err != nil {
		log.WithError(err).Error("Failed to seed reminder")
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.WithField("status", resp.StatusCode).Error("Reminder seed rejected")
	}
}

func main() {
	godotenv.Load()

	apiURL := os.Getenv("SIM_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		broker = "tcp://localhost:1883"
	}

	vehicleCount := 3
	if v := os.Getenv("SIM_VEHICLES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			vehicleCount = parsed
		}
	}

	tickSeconds := 15
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			tickSeconds = parsed
		}
	}

	if err := provisionAccount(apiURL); err != nil {
		log.WithError(err).Fatal("Failed to provision simulator account")
	}

	var fleet []*vehicleState
	for i := 1; i <= vehicleCount; i++ {
		state, err := createVehicle(apiURL, i)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		seedMaintenance(apiURL, state)
		seedReminder(apiURL, state)
		fleet = append(fleet, state)
	}

	if len(fleet) == 0 {
		log.Fatal("No vehicles created. Ensure the API is reachable. Exiting.")
	}
	log.WithField("created_vehicles", len(fleet)).Info("Fleet seeding completed")

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("vehicle-maintenance-simulator").
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).Fatal("Failed to connect to MQTT broker")
	}
	defer client.Disconnect(250)

	log.WithField("broker", broker).Info("Odometer simulation started")
	ticker := time.NewTicker(time.Duration(tickSeconds) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		for _, v := range fleet {
			v.Mileage += 1 + rand.Intn(25)
			reading := odometerReading{
				VehicleID:  v.ID,
				Mileage:    v.Mileage,
				RecordedAt: time.Now(),
			}
			payload, err := json.Marshal(reading)
			if err != nil {
				log.WithError(err).Error("Failed to marshal odometer reading")
				continue
			}
			topic := "vehicles/" + v.ID + "/odometer"
			if token := client.Publish(topic, 1, false, payload); token.Wait() && token.Error() != nil {
				log.WithError(token.Error()).Error("Failed to publish odometer reading")
				continue
			}
			log.WithFields(log.Fields{
				"vehicle_id": v.ID,
				"mileage":    v.Mileage,
			}).Info("Published odometer reading")
		}
	}
}
