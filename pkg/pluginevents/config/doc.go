/*
Package config loads pluginevents settings from YAML or JSON.

# Overview

Settings describes how a host wires an Events instance: log level and format,
the unregistered-event policy, whether OpenTelemetry metrics and tracing are
enabled, where handler faults are journaled, and which Lua listener scripts to
load. Missing keys keep the values from Default.

# Basic Usage

	s, err := config.FromFile("pluginevents.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	events, closeFn, err := pluginevents.FromSettings(s)

A minimal file:

	log:
	  level: debug
	dispatch:
	  unregistered: warn
	faults:
	  store: sqlite
	  path: ./faults.db

# Struct Tags

Fields carry yaml, json and mapstructure tags so the same struct can be filled
by FromYAML, FromJSON or a viper Unmarshal.
*/
package config
