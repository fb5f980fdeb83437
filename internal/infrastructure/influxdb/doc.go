// Package influxdb records asset OEE history in InfluxDB v2.
//
// Every create and update writes one point:
//
//	asset_oee,asset_id=<id>,serial_number=<sn>,status=<status> oee_score=<float>
//
// Writes are non-blocking and batched by the client library; failures
// surface through the callback set with SetOnError. The integration is
// optional: Connect returns ErrDisabled when influxdb.enabled is false.
package influxdb
