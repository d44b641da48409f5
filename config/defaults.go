package config

// Default returns the embedded baseline configuration: the three pilot
// units with their energy benchmarks, the critical equipment list, and the
// per-type sensor profiles used by the risk scorer and anomaly baseline.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Redis:  RedisConfig{Addr: "localhost:6379", TTLSeconds: 300},
		Kafka: KafkaConfig{
			Topic:   "plant.readings",
			GroupID: "plant-analytics",
		},
		Database: DatabaseConfig{
			Driver: "none",
			SQLite: SQLiteConfig{Path: "analytics.db"},
			Pool:   PoolConfig{MaxIdleConns: 5, MaxOpenConns: 20, ConnMaxLifetime: 3600},
		},
		Logging: LoggingConfig{Level: "info"},
		Analytics: AnalyticsConfig{
			CycleIntervalSeconds: 180,
			RetentionMinutes:     240,
			WindowMinutes:        60,
			MinSamples:           3,
			TrendDelta:           2.0,
			DegradedComposite:    0,
			AnomalySigma:         3.0,
			RiskAlertThreshold:   70,
			StabilityAlertBelow:  50,
			EfficiencyAlertBelow: 70,
			SavingsHorizonHours:  24,
			EnergyPriceUSD:       0.12,
			HistoryMaxPoints:     480,
			StabilityTags: []StabilityTag{
				{UnitID: "CDU-101", TagID: "CDU-101.feed_temp", Scale: 5},
				{UnitID: "CDU-101", TagID: "CDU-101.column_pressure", Scale: 5},
				{UnitID: "FCC-201", TagID: "FCC-201.reactor_temp", Scale: 5},
				{UnitID: "HT-301", TagID: "HT-301.bed_temp", Scale: 5},
			},
		},
		Units: []Unit{
			{
				ID: "CDU-101", Name: "Crude Distillation Unit 101",
				Capacity: 12000, TargetThroughput: 11000, MarginUSD: 4.5,
				EnergyBenchmark: 45, EnergyTarget: 42,
				ThroughputTag: "CDU-101.throughput", QualityTag: "CDU-101.quality",
				AvailabilityTag: "CDU-101.availability", EnergyTag: "CDU-101.energy",
			},
			{
				ID: "FCC-201", Name: "Fluid Catalytic Cracker 201",
				Capacity: 8000, TargetThroughput: 7200, MarginUSD: 6.0,
				EnergyBenchmark: 65, EnergyTarget: 60,
				ThroughputTag: "FCC-201.throughput", QualityTag: "FCC-201.quality",
				AvailabilityTag: "FCC-201.availability", EnergyTag: "FCC-201.energy",
			},
			{
				ID: "HT-301", Name: "Hydrotreater 301",
				Capacity: 6000, TargetThroughput: 5400, MarginUSD: 3.2,
				EnergyBenchmark: 35, EnergyTarget: 32,
				ThroughputTag: "HT-301.throughput", QualityTag: "HT-301.quality",
				AvailabilityTag: "HT-301.availability", EnergyTag: "HT-301.energy",
			},
		},
		Equipment: []Equipment{
			{
				ID: "PUMP-CDU-101", Name: "Main Charge Pump", Type: "PUMP", UnitID: "CDU-101",
				Sensors: sensorTags("PUMP-CDU-101", "vibration_x", "vibration_y", "temperature", "pressure", "flow_rate"),
			},
			{
				ID: "PUMP-CDU-102", Name: "Reflux Pump", Type: "PUMP", UnitID: "CDU-101",
				Sensors: sensorTags("PUMP-CDU-102", "vibration_x", "vibration_y", "temperature", "pressure", "flow_rate"),
			},
			{
				ID: "COMP-FCC-201", Name: "Wet Gas Compressor", Type: "COMPRESSOR", UnitID: "FCC-201",
				Sensors: sensorTags("COMP-FCC-201", "vibration_x", "vibration_y", "temperature", "pressure_ratio", "efficiency"),
			},
			{
				ID: "VALVE-HT-301", Name: "Feed Control Valve", Type: "VALVE", UnitID: "HT-301",
				Sensors: sensorTags("VALVE-HT-301", "position_error", "response_time", "leakage_rate", "actuator_pressure"),
			},
			{
				ID: "EXCH-CDU-101", Name: "Preheat Exchanger", Type: "EXCHANGER", UnitID: "CDU-101",
				Sensors: sensorTags("EXCH-CDU-101", "delta_t", "fouling_factor", "pressure_drop", "flow_rate", "efficiency"),
			},
		},
		Profiles: map[string]map[string]FeatureProfile{
			"PUMP": {
				"vibration_x": {Nominal: 2.5, FailureThreshold: 8.0, Volatility: 0.3, Weight: 1.5},
				"vibration_y": {Nominal: 2.3, FailureThreshold: 7.5, Volatility: 0.25, Weight: 1.5},
				"temperature": {Nominal: 75, FailureThreshold: 120, Volatility: 1.5, Weight: 1.0},
				"pressure":    {Nominal: 15, FailureThreshold: 5, Volatility: 0.5, Weight: 1.0},
				"flow_rate":   {Nominal: 100, FailureThreshold: 60, Volatility: 2.0, Weight: 0.8},
			},
			"COMPRESSOR": {
				"vibration_x":    {Nominal: 3.0, FailureThreshold: 10.0, Volatility: 0.35, Weight: 1.5},
				"vibration_y":    {Nominal: 2.8, FailureThreshold: 9.0, Volatility: 0.3, Weight: 1.5},
				"temperature":    {Nominal: 85, FailureThreshold: 140, Volatility: 2.0, Weight: 1.0},
				"pressure_ratio": {Nominal: 3.2, FailureThreshold: 1.5, Volatility: 0.15, Weight: 1.0},
				"efficiency":     {Nominal: 92, FailureThreshold: 65, Volatility: 1.0, Weight: 0.8},
			},
			"VALVE": {
				"position_error":    {Nominal: 0.5, FailureThreshold: 5.0, Volatility: 0.1, Weight: 1.2},
				"response_time":     {Nominal: 1.5, FailureThreshold: 8.0, Volatility: 0.2, Weight: 1.0},
				"leakage_rate":      {Nominal: 0.02, FailureThreshold: 2.0, Volatility: 0.05, Weight: 1.5},
				"actuator_pressure": {Nominal: 95, FailureThreshold: 50, Volatility: 1.5, Weight: 0.8},
			},
			"EXCHANGER": {
				"delta_t":        {Nominal: 45, FailureThreshold: 15, Volatility: 1.0, Weight: 1.2},
				"fouling_factor": {Nominal: 0.001, FailureThreshold: 0.01, Volatility: 0.0005, Weight: 1.5},
				"pressure_drop":  {Nominal: 0.5, FailureThreshold: 3.0, Volatility: 0.1, Weight: 1.0},
				"flow_rate":      {Nominal: 200, FailureThreshold: 120, Volatility: 3.0, Weight: 0.8},
				"efficiency":     {Nominal: 95, FailureThreshold: 70, Volatility: 0.8, Weight: 1.0},
			},
			"FURNACE": {
				"firebox_temp":   {Nominal: 850, FailureThreshold: 1050, Volatility: 5.0, Weight: 1.5},
				"stack_temp":     {Nominal: 180, FailureThreshold: 350, Volatility: 3.0, Weight: 1.2},
				"excess_o2":      {Nominal: 3.0, FailureThreshold: 8.0, Volatility: 0.3, Weight: 1.0},
				"draft_pressure": {Nominal: -0.5, FailureThreshold: -3.0, Volatility: 0.1, Weight: 0.8},
				"efficiency":     {Nominal: 90, FailureThreshold: 70, Volatility: 0.5, Weight: 1.0},
			},
		},
	}
}

func sensorTags(equipmentID string, features ...string) map[string]string {
	m := make(map[string]string, len(features))
	for _, f := range features {
		m[f] = equipmentID + "." + f
	}
	return m
}
