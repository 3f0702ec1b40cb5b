package sqlinline

const QStatsSummary = `--sql c7ebda5c-ed68-46ca-83ff-636fa23acf8a
select
    (select count(*) from user_credits)                                          as total_users,
    (select count(*) from user_credits where plan = 'vip')                       as vip_users,
    (select count(*) from user_credits where free_trial_used)                    as trials_consumed,
    (select count(*) from usage_events where success
        and created_at > now() - interval '24 hours')                            as allowed_last_24h,
    (select count(*) from usage_events where not success
        and created_at > now() - interval '24 hours')                            as denied_last_24h,
    (select coalesce(sum((properties->>'cost')::int), 0) from usage_events
        where success and properties->>'mode' = 'paid'
        and created_at > now() - interval '24 hours')                            as credits_spent_last_24h;
`
