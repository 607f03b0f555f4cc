package registry

import "github.com/cnl-ai/warden/pkg/types"

// builtinTable classifies every operation the agent is allowed to request
// against the provider API. Discovery and reporting operations are read-only.
// Anything that can drop traffic, reboot hardware, or lock out an
// administrator is dangerous. Operations missing from this table are treated
// as dangerous by the classifier.
var builtinTable = map[string]types.SafetyLevel{
	// Read-only discovery.
	"full_discovery":            types.LevelSafe,
	"discover_networks":         types.LevelSafe,
	"discover_devices":          types.LevelSafe,
	"discover_ssids":            types.LevelSafe,
	"discover_vlans":            types.LevelSafe,
	"discover_firewall_rules":   types.LevelSafe,
	"discover_switch_ports":     types.LevelSafe,
	"discover_switch_acls":      types.LevelSafe,
	"discover_clients":          types.LevelSafe,
	"discover_traffic":          types.LevelSafe,
	"find_issues":               types.LevelSafe,
	"generate_suggestions":      types.LevelSafe,
	"save_snapshot":             types.LevelSafe,
	"compare_snapshots":         types.LevelSafe,
	"list_networks":             types.LevelSafe,
	"list_devices":              types.LevelSafe,
	"generate_report":           types.LevelSafe,
	"generate_discovery_report": types.LevelSafe,

	// Workflow authoring only produces JSON, no provider calls.
	"create_device_offline_handler":    types.LevelSafe,
	"create_firmware_compliance_check": types.LevelSafe,
	"create_scheduled_report":          types.LevelSafe,
	"create_security_alert_handler":    types.LevelSafe,
	"save_workflow":                    types.LevelSafe,
	"list_workflows":                   types.LevelSafe,

	// Low-risk configuration changes.
	"configure_ssid": types.LevelModerate,
	"enable_ssid":    types.LevelModerate,
	"disable_ssid":   types.LevelModerate,
	"create_vlan":    types.LevelModerate,
	"update_vlan":    types.LevelModerate,
	"backup_config":  types.LevelModerate,

	// High-risk changes.
	"add_firewall_rule":    types.LevelDangerous,
	"remove_firewall_rule": types.LevelDangerous,
	"add_switch_acl":       types.LevelDangerous,
	"delete_vlan":          types.LevelDangerous,
	"rollback_config":      types.LevelDangerous,

	// Security and monitoring.
	"discover_vpn_topology":      types.LevelSafe,
	"discover_content_filtering": types.LevelSafe,
	"discover_ips_settings":      types.LevelSafe,
	"discover_amp_settings":      types.LevelSafe,
	"discover_traffic_shaping":   types.LevelSafe,
	"configure_s2s_vpn":          types.LevelDangerous,
	"add_vpn_peer":               types.LevelDangerous,
	"configure_content_filter":   types.LevelModerate,
	"add_blocked_url":            types.LevelModerate,
	"configure_ips":              types.LevelModerate,
	"set_ips_mode":               types.LevelModerate,
	"configure_amp":              types.LevelModerate,
	"configure_traffic_shaping":  types.LevelModerate,
	"set_bandwidth_limit":        types.LevelModerate,

	// Alerts, firmware, observability.
	"discover_alerts":           types.LevelSafe,
	"discover_webhooks":         types.LevelSafe,
	"discover_firmware_status":  types.LevelSafe,
	"discover_snmp_config":      types.LevelSafe,
	"discover_syslog_config":    types.LevelSafe,
	"discover_recent_changes":   types.LevelSafe,
	"configure_alerts":          types.LevelModerate,
	"create_webhook_endpoint":   types.LevelModerate,
	"test_webhook":              types.LevelSafe,
	"schedule_firmware_upgrade": types.LevelDangerous,
	"cancel_firmware_upgrade":   types.LevelDangerous,
	"configure_snmp":            types.LevelModerate,
	"configure_syslog":          types.LevelModerate,

	// Switching, wireless, platform.
	"discover_switch_routing":       types.LevelSafe,
	"configure_switch_l3_interface": types.LevelDangerous,
	"add_switch_static_route":       types.LevelDangerous,
	"discover_stp_config":           types.LevelSafe,
	"configure_stp":                 types.LevelDangerous,
	"reboot_device":                 types.LevelDangerous,
	"blink_leds":                    types.LevelSafe,
	"discover_nat_rules":            types.LevelSafe,
	"discover_port_forwarding":      types.LevelSafe,
	"configure_1to1_nat":            types.LevelModerate,
	"configure_port_forwarding":     types.LevelModerate,
	"discover_rf_profiles":          types.LevelSafe,
	"configure_rf_profile":          types.LevelModerate,
	"discover_wireless_health":      types.LevelSafe,
	"get_wireless_connection_stats": types.LevelSafe,
	"get_wireless_latency_stats":    types.LevelSafe,
	"get_wireless_signal_quality":   types.LevelSafe,
	"get_channel_utilization":       types.LevelSafe,
	"get_failed_connections":        types.LevelSafe,
	"discover_qos_config":           types.LevelSafe,
	"configure_qos":                 types.LevelModerate,
	"discover_org_admins":           types.LevelSafe,
	"manage_admin":                  types.LevelDangerous,
	"discover_inventory":            types.LevelSafe,
	"claim_device":                  types.LevelModerate,
	"release_device":                types.LevelDangerous,

	// Policy objects, client VPN, schedules, telemetry.
	"discover_policy_objects": types.LevelSafe,
	"manage_policy_object":    types.LevelModerate,
	"discover_client_vpn":     types.LevelSafe,
	"configure_client_vpn":    types.LevelModerate,
	"discover_port_schedules": types.LevelSafe,
	"configure_port_schedule": types.LevelModerate,
	"discover_lldp_cdp":       types.LevelSafe,
	"discover_netflow_config": types.LevelSafe,
	"configure_netflow":       types.LevelModerate,
	"discover_poe_status":     types.LevelSafe,

	// SD-WAN, templates, access policies, wireless security.
	"discover_sdwan_config":    types.LevelSafe,
	"configure_sdwan_policy":   types.LevelDangerous,
	"set_uplink_preference":    types.LevelDangerous,
	"discover_templates":       types.LevelSafe,
	"manage_template":          types.LevelDangerous,
	"discover_access_policies": types.LevelSafe,
	"configure_access_policy":  types.LevelModerate,
	"discover_rogue_aps":       types.LevelSafe,
	"discover_ssid_firewall":   types.LevelSafe,
	"configure_ssid_firewall":  types.LevelModerate,
	"discover_splash_config":   types.LevelSafe,
	"configure_splash_page":    types.LevelModerate,

	// Adaptive policy, stacks, HA, cameras, sensors.
	"discover_adaptive_policies":  types.LevelSafe,
	"configure_adaptive_policy":   types.LevelDangerous,
	"get_adaptive_policy_acls":    types.LevelSafe,
	"discover_switch_stacks":      types.LevelSafe,
	"manage_switch_stack":         types.LevelDangerous,
	"get_stack_routing":           types.LevelSafe,
	"discover_ha_config":          types.LevelSafe,
	"configure_warm_spare":        types.LevelDangerous,
	"trigger_failover":            types.LevelDangerous,
	"discover_camera_analytics":   types.LevelSafe,
	"generate_snapshot":           types.LevelSafe,
	"get_video_link":              types.LevelSafe,
	"discover_sensors":            types.LevelSafe,
	"configure_sensor_alert":      types.LevelModerate,
	"get_sensor_readings_latest":  types.LevelSafe,
	"get_sensor_readings_history": types.LevelSafe,

	// Floor plans, group policies, captures, static routes.
	"discover_floor_plans":      types.LevelSafe,
	"create_floor_plan":         types.LevelModerate,
	"update_floor_plan":         types.LevelModerate,
	"delete_floor_plan":         types.LevelModerate,
	"discover_group_policies":   types.LevelSafe,
	"configure_group_policy":    types.LevelModerate,
	"create_packet_capture":     types.LevelModerate,
	"get_packet_capture_status": types.LevelSafe,
	"discover_static_routes":    types.LevelSafe,
	"manage_static_route":       types.LevelModerate,

	// Restoring from a backup mutates live configuration like any other
	// write and must clear the same gates.
	"undo_last_operation": types.LevelDangerous,
}
