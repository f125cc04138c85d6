// Package influxdb records vidhub engagement time-series in InfluxDB.
//
// Every view, like, comment, subscription and publish becomes one point in
// the "engagement" measurement, tagged by event and target, with a signed
// delta field. Writes are non-blocking and batched per config.yaml
// (batch_size, flush_interval); async failures reach SetOnError.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // engagement recording off
//	}
//	defer client.Close()
package influxdb
