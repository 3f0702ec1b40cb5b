package sqlinline

const QInsertUsageEvent = `--sql 593a6cbf-ded6-47e2-b928-9c0b728bdfb3
insert into usage_events(id, user_id, request_id, event_type, mode, success, latency_ms, created_at, properties)
values (gen_random_uuid(), $1::text, $2::uuid, $3::text, $4::text, $5::boolean, $6::int, now(), coalesce($7::jsonb, '{}'::jsonb));
`
